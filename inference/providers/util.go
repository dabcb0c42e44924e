package providers

import (
	"fmt"
	"runtime"
)

// GetSharedLibPath returns the onnxruntime shared library to load. A non-empty
// override wins; otherwise the bundled library for the current platform is used.
//
// Returns:
//   - string: The path to the shared library.
//   - error: An error when the platform has no bundled library.
func GetSharedLibPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return sharedLibPathFor(runtime.GOOS, runtime.GOARCH)
}

func sharedLibPathFor(goos, goarch string) (string, error) {
	switch {
	case goos == "windows" && goarch == "amd64":
		return "./third_party/onnxruntime.dll", nil
	case goos == "darwin":
		return "./third_party/libonnxruntime.1.23.0.dylib", nil
	case goos == "linux" && goarch == "arm64":
		return "./third_party/onnxruntime_arm64.so", nil
	case goos == "linux":
		return "./third_party/onnxruntime.so", nil
	}
	return "", fmt.Errorf("no onnxruntime library bundled for %s/%s", goos, goarch)
}
