package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
)

// netGob is the serialized form of a Net: enough to rebuild the graph
// at batch size 1 and restore its weights
type netGob struct {
	Arch   Arch
	Params [][]float64
}

// GobEncode implements the gob.GobEncoder interface
func (n *Net) GobEncode() ([]byte, error) {
	params, err := n.Params()
	if err != nil {
		return nil, fmt.Errorf("gobEncode: %v", err)
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(netGob{n.arch, params}); err != nil {
		return nil, fmt.Errorf("gobEncode: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The decoded Net
// has batch size 1 and is in evaluation mode.
func (n *Net) GobDecode(in []byte) error {
	var decoded netGob
	dec := gob.NewDecoder(bytes.NewReader(in))
	if err := dec.Decode(&decoded); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}

	net, err := New(decoded.Arch, 1, G.Zeroes(), false)
	if err != nil {
		return fmt.Errorf("gobDecode: %w", err)
	}
	if err := net.SetParams(decoded.Params); err != nil {
		return fmt.Errorf("gobDecode: %w", err)
	}

	*n = *net
	return nil
}
