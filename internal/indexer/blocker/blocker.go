// Package blocker resolves the input file list and partitions it into blocks
// whose in-memory postings tables are expected to fit in available memory.
package blocker

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/logger"
)

// File is one input file and its size in bytes.
type File struct {
	Path string
	Size int64
}

// Block is a group of files built into one block file.
type Block struct {
	ID    int
	Files []File
	Bytes int64
}

// ExpandPaths resolves paths to regular files. Directories are walked
// recursively in lexical order and symlinks to files are followed.
func ExpandPaths(paths []string) ([]File, error) {
	var files []File
	for _, p := range paths {
		p = os.ExpandEnv(p)
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("resolving input %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, File{Path: p, Size: info.Size()})
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			// symlinks count when they resolve to a regular file; linked
			// directories are not descended into
			fi, err := os.Stat(path)
			if errors.Is(err, fs.ErrNotExist) && d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			if err != nil {
				return err
			}
			if !fi.Mode().IsRegular() {
				return nil
			}
			files = append(files, File{Path: path, Size: fi.Size()})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	return files, nil
}

// Partitioner splits files into blocks against a fraction of available
// memory. Raw bytes roughly double once loaded into postings maps, so the
// default safety factor of 4 leaves headroom on top of that expansion.
type Partitioner struct {
	SafetyFactor int
	// Budget overrides the sampled available memory when non-zero.
	Budget uint64
	Sample MemorySampler
	logger *slog.Logger
}

func NewPartitioner(safetyFactor int, budget uint64, sample MemorySampler) *Partitioner {
	if sample == nil {
		sample = SystemMemory
	}
	return &Partitioner{
		SafetyFactor: safetyFactor,
		Budget:       budget,
		Sample:       sample,
		logger:       logger.WithComponent("blocker"),
	}
}

// Threshold samples available memory once and returns the per-block byte
// limit.
func (p *Partitioner) Threshold() (int64, error) {
	available := p.Budget
	if available == 0 {
		var err error
		available, err = p.Sample()
		if err != nil {
			return 0, fmt.Errorf("sampling available memory: %w", err)
		}
	}
	factor := p.SafetyFactor
	if factor <= 0 {
		factor = 4
	}
	threshold := int64(available / uint64(factor))
	if threshold <= 0 {
		threshold = 1
	}
	return threshold, nil
}

// Partition groups files in order. A block closes as soon as its accumulated
// size reaches the threshold. When everything fits in a single block and
// there are at least two files, the files are split into two blocks of
// roughly equal file count so the merge always runs over several sources.
func (p *Partitioner) Partition(files []File) ([]Block, error) {
	if len(files) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "no input files to index")
	}
	threshold, err := p.Threshold()
	if err != nil {
		return nil, err
	}

	var blocks []Block
	current := Block{}
	for _, f := range files {
		current.Files = append(current.Files, f)
		current.Bytes += f.Size
		if current.Bytes >= threshold {
			blocks = append(blocks, current)
			current = Block{}
		}
	}
	if len(current.Files) > 0 {
		blocks = append(blocks, current)
	}

	if len(blocks) == 1 && len(files) >= 2 {
		half := (len(files) + 1) / 2
		blocks = []Block{newBlock(files[:half]), newBlock(files[half:])}
	}
	for i := range blocks {
		blocks[i].ID = i
	}

	p.logger.Info("input partitioned",
		"files", len(files),
		"blocks", len(blocks),
		"threshold_bytes", threshold,
	)
	return blocks, nil
}

func newBlock(files []File) Block {
	b := Block{Files: files}
	for _, f := range files {
		b.Bytes += f.Size
	}
	return b
}
