package bert

import (
	"math/rand"

	"github.com/YuminosukeSato/tagtext/nn"
)

// Embeddings fuses four lookup tables into one input representation per
// token: word, absolute position, segment, and POS tag. The four vectors
// are summed, layer-normalized and passed through dropout. The tag table
// has exactly TagVocabSize rows so it stays aligned with the persisted tag
// vocabulary.
type Embeddings struct {
	cfg Config

	Word     *nn.Embedding
	Position *nn.Embedding
	Segment  *nn.Embedding
	Tag      *nn.Embedding

	norm *nn.LayerNorm
	drop *nn.Dropout

	batch, seq int
}

// NewEmbeddings creates the fused embedding block.
func NewEmbeddings(cfg Config, rng *rand.Rand) *Embeddings {
	return &Embeddings{
		cfg:      cfg,
		Word:     nn.NewEmbedding("embeddings.word", cfg.VocabSize, cfg.HiddenSize, rng),
		Position: nn.NewEmbedding("embeddings.position", cfg.MaxLen, cfg.HiddenSize, rng),
		Segment:  nn.NewEmbedding("embeddings.segment", cfg.NumSegments, cfg.HiddenSize, rng),
		Tag:      nn.NewEmbedding("embeddings.tag", cfg.TagVocabSize, cfg.HiddenSize, rng),
		norm:     nn.NewLayerNorm("embeddings.norm", cfg.HiddenSize),
		drop:     nn.NewDropout(cfg.Dropout, rng),
	}
}

// Forward embeds a batch of id sequences into flattened (batch*seq) rows of
// HiddenSize features. Positions default to 0..seq-1 and segments to 0.
// A nil tagIDs substitutes id 0 everywhere, giving every position the same
// constant tag vector.
func (e *Embeddings) Forward(inputIDs, tagIDs [][]int) [][]float64 {
	e.batch = len(inputIDs)
	e.seq = 0
	if e.batch > 0 {
		e.seq = len(inputIDs[0])
	}

	posIDs := make([][]int, e.batch)
	segIDs := make([][]int, e.batch)
	for b := 0; b < e.batch; b++ {
		pos := make([]int, e.seq)
		for t := range pos {
			pos[t] = t
		}
		posIDs[b] = pos
		segIDs[b] = make([]int, e.seq)
	}
	if tagIDs == nil {
		tagIDs = make([][]int, e.batch)
		for b := range tagIDs {
			tagIDs[b] = make([]int, e.seq)
		}
	}

	word := e.Word.Forward(inputIDs)
	position := e.Position.Forward(posIDs)
	segment := e.Segment.Forward(segIDs)
	tag := e.Tag.Forward(tagIDs)

	rows := make([][]float64, e.batch*e.seq)
	for b := 0; b < e.batch; b++ {
		for t := 0; t < e.seq; t++ {
			row := make([]float64, e.cfg.HiddenSize)
			for k := 0; k < e.cfg.HiddenSize; k++ {
				row[k] = word[b][t][k] + position[b][t][k] + segment[b][t][k] + tag[b][t][k]
			}
			rows[b*e.seq+t] = row
		}
	}

	return e.drop.Forward(e.norm.Forward(rows))
}

// Backward propagates through dropout and layer norm, then scatter-adds the
// shared upstream gradient into all four tables.
func (e *Embeddings) Backward(dRows [][]float64) {
	d := e.norm.Backward(e.drop.Backward(dRows))

	d3 := make([][][]float64, e.batch)
	for b := 0; b < e.batch; b++ {
		seq := make([][]float64, e.seq)
		for t := 0; t < e.seq; t++ {
			seq[t] = d[b*e.seq+t]
		}
		d3[b] = seq
	}

	e.Word.Backward(d3)
	e.Position.Backward(d3)
	e.Segment.Backward(d3)
	e.Tag.Backward(d3)
}

// SetTraining toggles dropout.
func (e *Embeddings) SetTraining(training bool) { e.drop.SetTraining(training) }

// Parameters returns all embedding tables plus the layer-norm parameters.
func (e *Embeddings) Parameters() []*nn.Param {
	params := e.Word.Parameters()
	params = append(params, e.Position.Parameters()...)
	params = append(params, e.Segment.Parameters()...)
	params = append(params, e.Tag.Parameters()...)
	params = append(params, e.norm.Parameters()...)
	return params
}
