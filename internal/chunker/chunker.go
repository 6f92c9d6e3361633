package chunker

import (
	"strconv"
	"strings"

	"github.com/devmind/semindex/internal/language"
	"github.com/devmind/semindex/pkg/types"
)

// Default sizing, in characters.
const (
	DefaultMinChunkSize = 50
	DefaultMaxChunkSize = 1500
	DefaultOverlap      = 50
)

// Config controls chunk sizing.
type Config struct {
	// MinChunkSize is the size below which a chunk is considered a poor
	// fit; it feeds scoring rather than filtering.
	MinChunkSize int
	// MaxChunkSize is the window size for unrecognized content and the
	// upper edge of the size-fit band. Structural chunks may exceed it.
	MaxChunkSize int
	// Overlap is how many characters consecutive windows share.
	Overlap int
}

// DefaultConfig returns the standard sizing.
func DefaultConfig() Config {
	return Config{
		MinChunkSize: DefaultMinChunkSize,
		MaxChunkSize: DefaultMaxChunkSize,
		Overlap:      DefaultOverlap,
	}
}

// Chunker splits file content into chunks using per-language strategies.
type Chunker struct {
	cfg      Config
	registry *language.Registry
}

// New creates a Chunker. Non-positive sizes fall back to defaults, and
// the overlap is clamped below the maximum so windowing always advances.
func New(cfg Config) *Chunker {
	if cfg.MinChunkSize <= 0 {
		cfg.MinChunkSize = DefaultMinChunkSize
	}
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = DefaultMaxChunkSize
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = DefaultOverlap
	}
	if cfg.Overlap >= cfg.MaxChunkSize {
		cfg.Overlap = cfg.MaxChunkSize - 1
	}
	return &Chunker{
		cfg:      cfg,
		registry: language.NewRegistry(),
	}
}

// Config returns the sizing in effect.
func (c *Chunker) Config() Config {
	return c.cfg
}

// Chunk splits content into chunks. The file path drives language
// detection and baseMeta is copied into every chunk's metadata. Empty
// content yields no chunks; whitespace-only content survives as a block
// so concatenating chunk contents reconstructs the file.
func (c *Chunker) Chunk(filePath, content string, baseMeta map[string]string) []types.Chunk {
	if content == "" {
		return nil
	}

	lang := language.Detect(filePath, content)
	strat := c.registry.For(lang)
	if strat == nil {
		return c.window(content, 1, lang, baseMeta)
	}
	return c.chunkStructural(strat, content, lang, baseMeta)
}

func (c *Chunker) chunkStructural(strat language.Strategy, content string, lang types.Language, baseMeta map[string]string) []types.Chunk {
	lines := strings.Split(content, "\n")
	var chunks []types.Chunk

	pendingStart := 0
	flush := func(upto int) {
		if upto <= pendingStart {
			return
		}
		block := strings.Join(lines[pendingStart:upto], "\n")
		if block != "" {
			chunks = append(chunks, c.emit(block, pendingStart+1, types.ChunkBlock, lang, baseMeta, "", 0))
		}
		pendingStart = upto
	}

	i := 0
	for i < len(lines) {
		b, ok := strat.DetectBoundary(lines[i])
		if !ok {
			i++
			continue
		}

		// pull attached prefixes (decorators) out of the pending block
		attach := i
		for attach-1 >= pendingStart {
			prev := lines[attach-1]
			if !isBlankLine(prev) && strat.IsAttachedPrefix(prev) {
				attach--
				continue
			}
			break
		}
		// a whitespace-only gap travels with the unit that follows it,
		// so emitted chunks tile the file
		if spanBlank(lines, pendingStart, attach) {
			attach = pendingStart
		}
		flush(attach)

		units, next := strat.ExtractUnits(lines, i, b)
		if attach < i && len(units) > 0 {
			units[0].StartIdx = attach
		}
		for _, u := range units {
			uc := strings.Join(lines[u.StartIdx:u.EndIdx], "\n")
			if uc == "" {
				continue
			}
			chunks = append(chunks, c.emit(uc, u.StartIdx+1, u.Boundary.Type, lang, baseMeta, u.Boundary.Name, u.Depth))
		}
		i = next
		pendingStart = next
	}

	// trailing whitespace joins the last chunk instead of forming one
	if pendingStart < len(lines) && spanBlank(lines, pendingStart, len(lines)) && len(chunks) > 0 {
		tail := strings.Join(lines[pendingStart:], "\n")
		last := &chunks[len(chunks)-1]
		last.Content += "\n" + tail
		last.EndLine += len(lines) - pendingStart
	} else {
		flush(len(lines))
	}

	return chunks
}

func spanBlank(lines []string, from, to int) bool {
	for i := from; i < to; i++ {
		if !isBlankLine(lines[i]) {
			return false
		}
	}
	return true
}

// emit produces one chunk. Structural content is never windowed: a unit
// larger than MaxChunkSize keeps its type and is stored whole, truncated
// only at the index boundary.
func (c *Chunker) emit(content string, startLine int, ct types.ChunkType, lang types.Language, baseMeta map[string]string, name string, depth int) types.Chunk {
	meta := chunkMeta(baseMeta, "structural", name, depth)
	return types.Chunk{
		Content:   content,
		StartLine: startLine,
		EndLine:   startLine + strings.Count(content, "\n"),
		ChunkType: ct,
		Language:  lang,
		Metadata:  meta,
	}
}

// window splits unrecognized content into fixed-size character windows.
// Each window is at most MaxChunkSize long and starts Overlap characters
// before the previous window's end. Line numbers are derived from newline
// counts so windows report the span of the original file they cover.
func (c *Chunker) window(content string, startLine int, lang types.Language, baseMeta map[string]string) []types.Chunk {
	step := c.cfg.MaxChunkSize - c.cfg.Overlap
	var out []types.Chunk
	idx := 0
	for pos := 0; pos < len(content); pos += step {
		end := pos + c.cfg.MaxChunkSize
		if end > len(content) {
			end = len(content)
		}
		meta := chunkMeta(baseMeta, "sliding_window", "", 0)
		meta["window"] = strconv.Itoa(idx)
		out = append(out, types.Chunk{
			Content:   content[pos:end],
			StartLine: startLine + strings.Count(content[:pos], "\n"),
			EndLine:   startLine + strings.Count(content[:end], "\n"),
			ChunkType: types.ChunkBlock,
			Language:  lang,
			Metadata:  meta,
		})
		idx++
		if end == len(content) {
			break
		}
	}
	return out
}

func chunkMeta(base map[string]string, strategy, name string, depth int) map[string]string {
	meta := make(map[string]string, len(base)+3)
	for k, v := range base {
		meta[k] = v
	}
	meta["strategy"] = strategy
	if name != "" {
		meta["name"] = name
	}
	meta["depth"] = strconv.Itoa(depth)
	return meta
}

func isBlankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}
