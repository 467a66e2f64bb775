package renderer

// Unwind collects cleanup funcs to run in reverse order unless Discard is called first.
type Unwind []func()

func (u *Unwind) Add(cleanup func()) {
	*u = append(*u, cleanup)
}

func (u *Unwind) Unwind() {
	for i := len(*u) - 1; i >= 0; i-- {
		(*u)[i]()
	}
	*u = (*u)[:0]
}

func (u *Unwind) Discard() {
	*u = (*u)[:0]
}
