package bind_group_provider

// BufferWrite is one uniform upload for a frame: Data is written at Offset into the buffer
// behind Binding on Provider.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Fits reports whether the write lies inside a buffer of the given size.
// Writes are skipped rather than truncated when it does not.
func (w BufferWrite) Fits(size uint64) bool {
	return w.Offset <= size && uint64(len(w.Data)) <= size-w.Offset
}
