package main

import (
	"fmt"
	"io"
)

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

type holder struct {
	r *Resource
}

func useAfterClose() {
	r := open()
	r.Close()
	fmt.Println(r.Read()) // @UseAfterRelease
}

func doubleClose() {
	r := open()
	r.Close()
	r.Close() // @DoubleRelease
}

func deferredDoubleClose() {
	r := open()
	defer r.Close() // @DoubleRelease
	r.Close()
}

func closeOnError(fail bool) int {
	r := open()
	if fail {
		r.Close()
		return 0
	}
	n := r.Read()
	r.Close()
	return n
}

func reopen() int {
	r := open()
	r.Close()
	r = open()
	return r.Read()
}

func closeTwice(c io.Closer) {
	c.Close()
	c.Close() // @DoubleRelease
}

func closeThroughField(h *holder) {
	h.r.Close()
	h.r.Read() // @UseAfterRelease
}

func ignored() {
	r := open()
	r.Close()
	//ownercheck:ignore
	r.Read()
}

func main() {
	useAfterClose()
	doubleClose()
	deferredDoubleClose()
	fmt.Println(closeOnError(true), reopen())
	closeTwice(open())
	closeThroughField(&holder{r: open()})
	ignored()
}
