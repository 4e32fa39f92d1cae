package object

// Blob holds raw file data, or a symlink target. Blobs need no decoding, so
// they are never proxied.
type Blob struct {
	hash Hash
	data []byte
}

// NewBlob returns a blob holding a copy of data.
func NewBlob(data []byte) *Blob {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{hash: HashObject(TypeBlob, out), data: out}
}

func loadBlob(h Hash, payload []byte) *Blob {
	return &Blob{hash: h, data: payload}
}

func (b *Blob) Type() ObjectType { return TypeBlob }

func (b *Blob) sealed() {}

// Data returns the blob contents. Callers must not modify the slice.
func (b *Blob) Data() []byte {
	return b.data
}

// Size is the length of the contents in bytes.
func (b *Blob) Size() int {
	return len(b.data)
}

func (b *Blob) Payload() ([]byte, error) {
	return b.data, nil
}

// Hash is fixed when the blob is built; blobs are immutable.
func (b *Blob) Hash() (Hash, error) {
	return b.hash, nil
}
