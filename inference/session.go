package inference

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/hardhat/inference/providers"
)

// Session represents a model session from the onnxruntime.
type Session struct {
	Session *ort.AdvancedSession
	Input   *ort.Tensor[float32]
	Output  *ort.Tensor[float32]
}

// Close releases the resources associated with the Session.
func (s *Session) Close() error {
	var firstErr error
	if s.Session != nil {
		if err := s.Session.Destroy(); err != nil {
			firstErr = fmt.Errorf("error destroying ORT session: %w", err)
		}
		s.Session = nil
	}
	if s.Input != nil {
		s.Input.Destroy()
		s.Input = nil
	}
	if s.Output != nil {
		s.Output.Destroy()
		s.Output = nil
	}
	return firstErr
}

// SessionArgs describes the model graph to bind.
type SessionArgs struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string
	// LibraryPath overrides the bundled onnxruntime shared library.
	LibraryPath string
	// InputName and OutputName are the graph node names.
	InputName  string
	OutputName string
	// InputShape is [1, 3, S, S]; OutputShape is [1, 4+nc, anchors].
	InputShape  ort.Shape
	OutputShape ort.Shape
	// Provider selects the execution provider and threading.
	Provider providers.Config
}

var envMu sync.Mutex

// initEnvironment loads the shared library once per process.
func initEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}

	libPath, err := providers.GetSharedLibPath(libraryPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(libPath); err != nil {
		return fmt.Errorf("ONNX Runtime library not found at %s: %w", libPath, err)
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("error initializing ORT environment: %w", err)
	}
	return nil
}

// NewSession creates an ONNX Runtime session with preallocated input and
// output tensors.
//
// Order of operations:
//  1. Environment setup from the configured or bundled shared library.
//  2. Tensor allocation for the fixed input and output shapes.
//  3. Session options from the provider configuration.
//  4. Session creation, binding the tensors by node name.
//
// Arguments:
//   - args: The model, shapes and provider to use.
//
// Returns:
//   - *Session: The session and its tensors; Close releases all of them.
//   - error: An error if any step fails. Nothing leaks on error.
func NewSession(args SessionArgs) (*Session, error) {
	if _, err := os.Stat(args.ModelPath); err != nil {
		return nil, fmt.Errorf("model not found at %s: %w", args.ModelPath, err)
	}
	if err := initEnvironment(args.LibraryPath); err != nil {
		return nil, err
	}

	input, err := ort.NewEmptyTensor[float32](args.InputShape)
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](args.OutputShape)
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	options, err := providers.NewSessionOptions(args.Provider)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(
		args.ModelPath,
		[]string{args.InputName},
		[]string{args.OutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("error creating ORT session: %w", err)
	}

	return &Session{Session: session, Input: input, Output: output}, nil
}
