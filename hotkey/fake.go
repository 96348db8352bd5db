package hotkey

type Fake struct {
	keydown chan struct{}
	keyup   chan struct{}

	Registered  bool
	RegisterErr error
}

func NewFake() *Fake {
	return &Fake{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (f *Fake) Register() error {
	if f.RegisterErr != nil {
		return f.RegisterErr
	}
	f.Registered = true
	return nil
}

func (f *Fake) Unregister()              { f.Registered = false }
func (f *Fake) Keydown() <-chan struct{} { return f.keydown }
func (f *Fake) Keyup() <-chan struct{}   { return f.keyup }

func (f *Fake) SimKeydown() { f.keydown <- struct{}{} }
func (f *Fake) SimKeyup()   { f.keyup <- struct{}{} }
