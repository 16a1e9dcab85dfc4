package main

import "fmt"

//ownercheck:config SetOptions(path-sensitive=true, context-depth=2)

type Conn struct {
	open bool
}

func dial() *Conn {
	return &Conn{open: true}
}

// shutdown closes the connection
//
//ownercheck:function Release
func shutdown(c *Conn) {
	c.open = false
}

// Send writes on the connection
func (c *Conn) Send(s string) {
	if c.open {
		fmt.Println(s)
	}
}

// Dispose closes the connection
//
//ownercheck:function Release
func (c *Conn) Dispose() {
	c.open = false
}

// view returns the connection itself
//
//ownercheck:function Escape
func view(c *Conn) *Conn {
	return c
}

//ownercheck:function Source(network)
func accept() *Conn {
	return dial()
}

//ownercheck:param c Source(client)
func serve(c *Conn) {
	shutdown(c)
	c.Send("bye") // @UseAfterRelease
}

func disposeTwice() {
	c := dial()
	c.Dispose()
	c.Dispose() // @DoubleRelease
}

func viewAfterShutdown() {
	c := dial()
	v := view(c)
	shutdown(c)
	v.Send("hello") // @UseAfterRelease
}

func acceptAndClose() {
	c := accept()
	shutdown(c)
	shutdown(c) // @DoubleRelease
}

// ownercheck: this is not an annotation
func notAnnotated() {}

func main() {
	serve(dial())
	disposeTwice()
	viewAfterShutdown()
	acceptAndClose()
	notAnnotated()
}
