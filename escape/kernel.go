package escape

// KernelName is the entry point compiled from KernelSource.
const KernelName = "eval_coord"

// fp64Option selects double precision in KernelSource.
const fp64Option = "-DESCAPE_FP64"

// paddingGuard stops work-items past the last cell. It compares the unsigned
// global id: padded ids of a launch over MaxInt32 cells do not fit an int.
const paddingGuard = "if (gid >= (size_t)total)"

// KernelSource evaluates one grid cell per work-item. Work-items past the last
// cell return without writing, because the launch is rounded up to a whole
// number of local groups.
const KernelSource = `#pragma OPENCL FP_CONTRACT OFF
#ifdef ESCAPE_FP64
#pragma OPENCL EXTENSION cl_khr_fp64 : enable
typedef double real_t;
#else
typedef float real_t;
#endif

__kernel void eval_coord(
    const int total,
    const int resx,
    const real_t lim_sq,
    const int its,
    const real_t dist,
    const real_t ulx,
    const real_t uly,
    __global uchar* out)
{
    size_t gid = get_global_id(0);
    ` + paddingGuard + ` {
        return;
    }
    int index = (int)gid;
    real_t x = (real_t)(index % resx) * dist + ulx;
    real_t y = -(real_t)(index / resx) * dist + uly;
    real_t zx = 0;
    real_t zy = 0;
    for (int i = 0; i < its; i++) {
        real_t tzx = zx;
        zx = zx * zx - zy * zy + x;
        zy = 2 * tzx * zy + y;
        if (zx * zx + zy * zy > lim_sq) {
            out[index] = 0;
            return;
        }
    }
    out[index] = 1;
}
`

// Bounded reports whether the orbit of (x, y) stays within the escape radius
// for p.Its iterations. It is the host rendition of KernelSource and must stay
// in step with it.
func Bounded(x, y float64, p Params) bool {
	var zx, zy float64
	for i := 0; i < p.Its; i++ {
		// Explicit conversions keep the compiler from fusing into FMA, which
		// the kernel disables as well.
		zx, zy = float64(zx*zx)-float64(zy*zy)+x, float64(2*zx*zy)+y
		if float64(zx*zx)+float64(zy*zy) > p.LimSq {
			return false
		}
	}
	return true
}

// GlobalSize returns the number of work-items launched for total cells in
// groups of local. It always covers total and is a multiple of local.
func GlobalSize(total, local int) int {
	return total/local*local + local
}
