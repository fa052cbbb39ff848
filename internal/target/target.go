// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package target

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SchemaVersion is bumped whenever the fingerprint or recipe layout changes
// in a way that invalidates every stored entry.
const SchemaVersion = "v1"

// separator joins the namespace components. It is forbidden inside them.
const separator = "_"

// ErrInvalidDescriptor is returned when a descriptor cannot produce a
// collision-free namespace.
var ErrInvalidDescriptor = errors.New("invalid target descriptor")

// Descriptor describes the compilation target.
type Descriptor struct {
	// Family is the product family. It selects the directory the banks live in
	// and is not part of the namespace.
	Family   string
	Variant  string
	CoreType string
	CoreNum  int
}

// Validate reports why d cannot be used to address a store, if at all.
func (d Descriptor) Validate() error {
	fields := []struct {
		name, value string
	}{
		{"family", d.Family},
		{"variant", d.Variant},
		{"core type", d.CoreType},
	}

	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidDescriptor, f.name)
		}
		if strings.ContainsAny(f.value, `/\:`) || f.value == "." || f.value == ".." {
			return fmt.Errorf("%w: %s %q contains path characters", ErrInvalidDescriptor, f.name, f.value)
		}
	}

	// Family is a directory name only, so the separator is fine there.
	for _, f := range fields[1:] {
		if strings.Contains(f.value, separator) {
			return fmt.Errorf("%w: %s %q contains %q", ErrInvalidDescriptor, f.name, f.value, separator)
		}
	}

	if d.CoreNum <= 0 {
		return fmt.Errorf("%w: core count must be positive, got %d", ErrInvalidDescriptor, d.CoreNum)
	}

	return nil
}

// Namespace returns the string every store entry for d is filed under, eg.
// "ascend910b_aicore_24_v1".
func (d Descriptor) Namespace() (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	return strings.Join([]string{d.Variant, d.CoreType, strconv.Itoa(d.CoreNum), SchemaVersion}, separator), nil
}

// String implements fmt.Stringer.
func (d Descriptor) String() string {
	return fmt.Sprintf("%s/%s/%s/%d", d.Family, d.Variant, d.CoreType, d.CoreNum)
}

// Provider supplies the current target. Implementations are expected to be
// cheap and side-effect free.
type Provider interface {
	Descriptor() (Descriptor, error)
}

// Static is a Provider that always returns itself.
type Static Descriptor

// Descriptor implements Provider.
func (s Static) Descriptor() (Descriptor, error) {
	return Descriptor(s), nil
}

// ProviderFunc adapts a function to a Provider.
type ProviderFunc func() (Descriptor, error)

// Descriptor implements Provider.
func (f ProviderFunc) Descriptor() (Descriptor, error) {
	return f()
}

// Resolve asks p for the target and returns it together with its namespace.
func Resolve(p Provider) (Descriptor, string, error) {
	if p == nil {
		return Descriptor{}, "", fmt.Errorf("%w: no target provider", ErrInvalidDescriptor)
	}
	d, err := p.Descriptor()
	if err != nil {
		return Descriptor{}, "", fmt.Errorf("failed to identify target: %w", err)
	}
	ns, err := d.Namespace()
	if err != nil {
		return Descriptor{}, "", err
	}
	return d, ns, nil
}
