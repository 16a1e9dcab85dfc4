package closer

import "io"

type Resource struct {
	closed bool
}

func open() *Resource {
	return &Resource{}
}

func (r *Resource) Read() int {
	if r.closed {
		return -1
	}
	return 1
}

func (r *Resource) Close() error {
	r.closed = true
	return nil
}

func readAfterClose() int {
	r := open()
	r.Close()
	return r.Read() // want "use-after-release of t0"
}

func closeTwice() {
	r := open()
	r.Close()
	r.Close() // want "double-release of t0"
}

func closeInterfaceTwice(c io.Closer) {
	c.Close()
	c.Close() // want "double-release of c"
}

func closeOnce(fail bool) int {
	r := open()
	if fail {
		r.Close()
		return 0
	}
	n := r.Read()
	r.Close()
	return n
}

func (r *Resource) handshake() bool {
	return !r.closed
}

func closeOnErrorThenDefer() int {
	r := open()
	if !r.handshake() {
		r.Close()
		return 0
	}
	defer r.Close()
	return r.Read()
}

func deferAfterClose() {
	r := open()
	r.Close()
	defer r.Close() // want "double-release of t0"
}
