package core

// SurfaceInteraction describes a point on a surface as the intersection code
// reports it: position, geometric normal, tangent, the parametric distance of
// the hit and the id of the material covering it. The material id is what the
// BSSRDF probe uses to restrict itself to the surface it exited from.
type SurfaceInteraction struct {
	Point      Vec3
	Normal     Vec3
	Tangent    Vec3
	T          float64
	MaterialID int
}
