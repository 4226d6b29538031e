// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// Both the wesh configuration file and contribution manifests are CUE
// documents validated against an embedded schema. The package consolidates
// the parsing pattern used by both:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with the schema root definition
//  3. Validate and decode into a Go struct
//
// # Usage
//
//	//go:embed manifest_schema.cue
//	var schema string
//
//	result, err := cueutil.Decode[Manifest](schema, data, "#Manifest",
//	    cueutil.WithFilename("tools.wesh.cue"))
//	if err != nil {
//	    return nil, err // error carries the CUE path of the bad field
//	}
//	return result.Value, nil
package cueutil
