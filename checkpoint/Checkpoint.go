// Package checkpoint saves trained policies to disk and restores them
package checkpoint

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/samuelfneumann/pgrl/hyperparams"
	"github.com/samuelfneumann/pgrl/network"
	"github.com/samuelfneumann/pgrl/policy"
)

// Version is the current checkpoint format version
const Version = 1

// Device is a device that networks can be placed on
type Device string

const (
	CPU  Device = "cpu"
	CUDA Device = "cuda"
)

// Available returns whether networks can be placed on d. Networks are
// built for the CPU engine only, so only CPU is available.
func Available(d Device) bool {
	return d == CPU
}

// Bundle is the saved form of a policy
type Bundle struct {
	Version      int
	Tag          string
	Kind         hyperparams.Architecture
	NumActions   int
	Architecture []network.Arch
	Precision    string
	Params       [][][]float64
}

// FromPolicy returns the Bundle of a policy
func FromPolicy(tag string, pol policy.Policy) (Bundle, error) {
	s, err := pol.Snapshot()
	if err != nil {
		return Bundle{}, fmt.Errorf("fromPolicy: %v", err)
	}

	return Bundle{
		Version:      Version,
		Tag:          tag,
		Kind:         s.Kind,
		NumActions:   s.NumActions,
		Architecture: s.Archs,
		Precision:    s.Archs[0].Dtype().String(),
		Params:       s.Params,
	}, nil
}

// Policy rebuilds the policy saved in the Bundle
func (b Bundle) Policy() (policy.Policy, error) {
	if b.Version != Version {
		return nil, errors.Wrapf(hyperparams.ErrConfig, "policy: cannot "+
			"restore checkpoint version %v", b.Version)
	}
	for i := range b.Architecture {
		if b.Architecture[i].Dtype().String() != b.Precision {
			return nil, errors.Wrapf(hyperparams.ErrConfig, "policy: "+
				"network %v has precision %v in a %v checkpoint", i,
				b.Architecture[i].Dtype(), b.Precision)
		}
	}

	return policy.Restore(policy.Snapshot{
		Kind:       b.Kind,
		NumActions: b.NumActions,
		Archs:      b.Architecture,
		Params:     b.Params,
	})
}

// Save saves a policy to path, creating parent directories as needed
func Save(path, tag string, pol policy.Policy) error {
	bundle, err := FromPolicy(tag, pol)
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create checkpoint: %v", err)
	}
	defer file.Close()

	enc := gob.NewEncoder(file)
	if err := enc.Encode(bundle); err != nil {
		return fmt.Errorf("save: could not encode checkpoint: %v", err)
	}
	return nil
}

// Read reads the Bundle saved at path
func Read(path string) (Bundle, error) {
	file, err := os.Open(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("read: could not open checkpoint: %v",
			err)
	}
	defer file.Close()

	var bundle Bundle
	dec := gob.NewDecoder(file)
	if err := dec.Decode(&bundle); err != nil {
		return Bundle{}, fmt.Errorf("read: could not decode checkpoint: %v",
			err)
	}
	return bundle, nil
}

// Load restores the policy saved at path onto device. If device is
// not available, the policy is restored onto the CPU instead. The
// device the policy was restored onto is returned.
func Load(path string, device Device) (policy.Policy, Device, error) {
	if !Available(device) {
		device = CPU
	}

	bundle, err := Read(path)
	if err != nil {
		return nil, device, fmt.Errorf("load: %v", err)
	}
	pol, err := bundle.Policy()
	if err != nil {
		return nil, device, fmt.Errorf("load: %w", err)
	}
	return pol, device, nil
}
