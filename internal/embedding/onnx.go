//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/helpsearch/pkg/utils"
)

// Sentence models exported for helpsearch take three [1, maxTokens] int64
// inputs and produce a pooled [1, dimensions] float32 output.
var onnxInputNames = []string{"input_ids", "attention_mask", "token_type_ids"}

const onnxOutputName = "output"

var errONNXClosed = errors.New("onnx embedder is closed")

// onnxBuffers holds the tensors bound to a session. Inputs are rewritten in
// place before each Run and the output is read back after it.
type onnxBuffers struct {
	inputs []*ort.Tensor[int64]
	output *ort.Tensor[float32]
}

func newONNXBuffers(maxTokens, dimensions int) (*onnxBuffers, error) {
	b := &onnxBuffers{}
	for _, name := range onnxInputNames {
		t, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), make([]int64, maxTokens))
		if err != nil {
			b.destroy()
			return nil, fmt.Errorf("create %s tensor: %w", name, err)
		}
		b.inputs = append(b.inputs, t)
	}
	out, err := ort.NewTensor(ort.NewShape(1, int64(dimensions)), make([]float32, dimensions))
	if err != nil {
		b.destroy()
		return nil, fmt.Errorf("create %s tensor: %w", onnxOutputName, err)
	}
	b.output = out
	return b, nil
}

// bind returns the tensors in the order NewAdvancedSession expects.
func (b *onnxBuffers) bind() (inputs, outputs []ort.ArbitraryTensor) {
	for _, t := range b.inputs {
		inputs = append(inputs, t)
	}
	return inputs, []ort.ArbitraryTensor{b.output}
}

// load copies one tokenized text into the input tensors, in onnxInputNames order.
func (b *onnxBuffers) load(values ...[]int64) {
	for i, v := range values {
		copy(b.inputs[i].GetData(), v)
	}
}

func (b *onnxBuffers) destroy() {
	for _, t := range b.inputs {
		_ = t.Destroy()
	}
	b.inputs = nil
	if b.output != nil {
		_ = b.output.Destroy()
		b.output = nil
	}
}

// ONNXEmbedder runs a sentence model with ONNX Runtime. It requires CGO and
// the onnxruntime shared library.
type ONNXEmbedder struct {
	dimensions int
	maxTokens  int
	tokenizer  Tokenizer

	mu      sync.Mutex
	session *ort.AdvancedSession
	buffers *onnxBuffers
}

// NewONNXEmbedder loads the model at modelPath. Wrap it in a CachedEmbedder to
// reuse query embeddings.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens int) (*ONNXEmbedder, error) {
	if dimensions <= 0 || maxTokens <= 0 {
		return nil, fmt.Errorf("invalid onnx shape: dimensions=%d max_tokens=%d", dimensions, maxTokens)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	buffers, err := newONNXBuffers(maxTokens, dimensions)
	if err != nil {
		return nil, err
	}
	inputs, outputs := buffers.bind()
	session, err := ort.NewAdvancedSession(modelPath,
		onnxInputNames, []string{onnxOutputName},
		inputs, outputs, nil)
	if err != nil {
		buffers.destroy()
		return nil, fmt.Errorf("failed to create ONNX session for %s: %w", modelPath, err)
	}

	return &ONNXEmbedder{
		dimensions: dimensions,
		maxTokens:  maxTokens,
		tokenizer:  &SimpleTokenizer{},
		session:    session,
		buffers:    buffers,
	}, nil
}

// Embed runs the model on text and returns a unit-length embedding.
// Calls are serialized on the shared tensors.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, errONNXClosed
	}

	e.buffers.load(e.tokenizer.Tokenize(text, e.maxTokens))
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	emb := append([]float32(nil), e.buffers.output.GetData()[:e.dimensions]...)
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, e.Embed)
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session and its tensors. Later calls to Embed fail.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	e.buffers.destroy()
	return err
}
