// Package interp runs the interpreter under test as a subprocess.
//
// Each run is bounded by a timeout. On unix the child is started in its own
// process group and the whole group is killed when the timeout expires, so
// no interpreter processes outlive the run that started them.
package interp
