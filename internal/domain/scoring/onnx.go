package scoring

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/okian/readmit/internal/domain/model"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXPipeline implements Pipeline by running an exported classifier graph.
// The model takes a single [1, len(features)] float32 tensor and yields
// class probabilities: either [1, 2] (prob of each class) or [1, 1] (prob of
// the positive class).
type ONNXPipeline struct {
	mu         sync.Mutex // sessions are not documented as concurrency-safe
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	features   []string
	outputDim  int64
	threshold  float64
}

// NewONNX loads the ONNX model at modelPath and creates an inference
// session. The runtime shared library is expected alongside the model file,
// as libonnxruntime.so.
func NewONNX(modelPath string, features []string, threshold float64) (*ONNXPipeline, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("scoring: onnx pipeline needs a feature list")
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = defaultThreshold
	}

	libPath := filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx: expected a single input tensor, got %d", len(inputs))
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model has no outputs")
	}

	inDims := inputs[0].Dimensions
	if len(inDims) != 2 || (inDims[1] > 0 && inDims[1] != int64(len(features))) {
		return nil, fmt.Errorf("onnx: input shape %v does not fit %d features", inDims, len(features))
	}

	outDims := outputs[0].Dimensions
	if len(outDims) != 2 || (outDims[1] != 1 && outDims[1] != 2) {
		return nil, fmt.Errorf("onnx: expected [1,1] or [1,2] output tensor, got %v", outDims)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &ONNXPipeline{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		features:   features,
		outputDim:  outDims[1],
		threshold:  threshold,
	}, nil
}

// PredictProba runs one inference call.
func (p *ONNXPipeline) PredictProba(ctx context.Context, obs model.Observation) (float64, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("scoring cancelled: %w", ctx.Err())
	default:
	}

	vector, err := Encode(obs, p.features)
	if err != nil {
		return 0, err
	}

	inShape := ort.NewShape(1, int64(len(vector)))
	tIn, err := ort.NewTensor(inShape, vector)
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer tIn.Destroy()

	outShape := ort.NewShape(1, p.outputDim)
	tOut, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	p.mu.Lock()
	err = p.session.Run([]ort.Value{tIn}, []ort.Value{tOut})
	p.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("onnx: inference failed: %w", err)
	}

	out := tOut.GetData()
	if p.outputDim == 2 {
		return float64(out[1]), nil
	}
	return float64(out[0]), nil
}

// Predict applies the decision threshold to PredictProba.
func (p *ONNXPipeline) Predict(ctx context.Context, obs model.Observation) (bool, error) {
	proba, err := p.PredictProba(ctx, obs)
	if err != nil {
		return false, err
	}
	return proba >= p.threshold, nil
}

// Close releases the ONNX session resources.
func (p *ONNXPipeline) Close() error {
	return p.session.Destroy()
}
