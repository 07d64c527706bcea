package calc

import "os"

// Quiet redirects os.Stdout and os.Stderr to the null device and returns a
// restore function. Model loads are the one place external runtimes dump
// banner noise; callers wrap the load and defer the restore so the original
// streams come back on every exit path, including panics:
//
//	restore, err := calc.Quiet()
//	if err == nil {
//		defer restore()
//	}
//
// Subprocess children spawned inside the scope inherit the null device for
// stderr, so their load chatter is silenced as well.
func Quiet() (restore func(), err error) {
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	oldOut, oldErr := os.Stdout, os.Stderr
	os.Stdout = devnull
	os.Stderr = devnull
	return func() {
		os.Stdout = oldOut
		os.Stderr = oldErr
		_ = devnull.Close()
	}, nil
}
