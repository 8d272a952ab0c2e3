package cuckoo

var hostEncoder Encoder = I386{}

// The linker fills the gaps between functions with INT3.
var codePadding = []byte{0xcc}
