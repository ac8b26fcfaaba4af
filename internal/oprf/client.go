package oprf

import (
	group "github.com/bytemare/crypto"

	"github.com/dirauth/dirauth/internal/encoding"
	"github.com/dirauth/dirauth/internal/tag"
)

// Client implements the OPRF client and holds the per-attempt blinding state.
type Client struct {
	suite Suite
	input []byte
	blind *group.Scalar
}

// Client returns a new OPRF client for the suite.
func (s Suite) Client() *Client {
	return &Client{suite: s}
}

// Blind hashes the input to the group and masks it with the blinding scalar.
func (c *Client) Blind(input []byte) *group.Element {
	if c.blind == nil {
		c.blind = c.suite.Group().NewScalar().Random()
	}

	c.input = input
	p := c.suite.Group().HashToGroup(input, c.suite.dst(tag.OPRFPointPrefix))

	return p.Multiply(c.blind)
}

// Finalize unblinds the evaluated element and hashes the transcript, yielding
// the OPRF output.
func (c *Client) Finalize(evaluated *group.Element) []byte {
	inv := c.blind.Copy().Invert()
	unblinded := encoding.SerializePoint(evaluated.Copy().Multiply(inv), c.suite.Group())

	return c.suite.hashTranscript(c.input, unblinded)
}
