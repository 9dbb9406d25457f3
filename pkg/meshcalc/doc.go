// Package meshcalc computes discrete differential operators on triangle
// meshes: the per-face gradient of a per-vertex scalar field and the
// per-vertex divergence and curl of a per-face vector field.
//
// A mesh is preprocessed once into an immutable *Mesh handle that carries
// per-face areas, normals, centroids, tangent bases and cotangent weights.
// Gradient, Divergence and Curl are pure functions of the handle and a
// field; a handle may be shared by any number of calls, including
// concurrent ones.
//
// Degenerate faces (zero area) are accepted. Every term they would
// contribute is exactly zero, so well-formed input never yields NaN or Inf.
package meshcalc
