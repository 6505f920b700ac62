// SPDX-License-Identifier: MPL-2.0

// Package codegen generates the Kotlin sources that expose a catalog to
// convention scripts: an entrypoint extension property and the accessor
// class with one typed member per catalog entry. Generation is registered
// as cacheable steps keyed on the catalog model.
package codegen
