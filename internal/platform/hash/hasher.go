package hash

// Hasher hashes secrets and checks plain values against stored hashes.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) (bool, error)
}
