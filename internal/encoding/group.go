package encoding

import (
	group "github.com/bytemare/crypto"
)

const (
	ristrettoPointLength  = 32
	ristrettoScalarLength = 32
	p256PointLength       = 33
	p256ScalarLength      = 32
	p384PointLength       = 49
	p384ScalarLength      = 48
	p521PointLength       = 67
	p521ScalarLength      = 66
)

// ScalarLength indexes the encoded length of scalars.
var ScalarLength = map[group.Group]int{
	group.Ristretto255Sha512: ristrettoScalarLength,
	group.P256Sha256:         p256ScalarLength,
	group.P384Sha384:         p384ScalarLength,
	group.P521Sha512:         p521ScalarLength,
}

// PointLength indexes the encoded length of group elements.
var PointLength = map[group.Group]int{
	group.Ristretto255Sha512: ristrettoPointLength,
	group.P256Sha256:         p256PointLength,
	group.P384Sha384:         p384PointLength,
	group.P521Sha512:         p521PointLength,
}

// SerializeScalar encodes the scalar, left-padding if necessary.
func SerializeScalar(s *group.Scalar, g group.Group) []byte {
	length, ok := ScalarLength[g]
	if !ok {
		panic("invalid group identifier")
	}

	e := s.Encode()
	for len(e) < length {
		e = append([]byte{0x00}, e...)
	}

	return e
}

// SerializePoint encodes the element, left-padding if necessary.
func SerializePoint(p *group.Element, g group.Group) []byte {
	length, ok := PointLength[g]
	if !ok {
		panic("invalid group identifier")
	}

	e := p.Encode()
	for len(e) < length {
		e = append([]byte{0x00}, e...)
	}

	return e
}
