package cuckoo

var hostEncoder Encoder = ARM64{}

// The linker fills the gaps between functions with zero words.
var codePadding = []byte{0, 0, 0, 0}
