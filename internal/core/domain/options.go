package domain

import "time"

// Default chunk sizing values.
const (
	// DefaultTargetTokenSize is the fill target for a chunk.
	DefaultTargetTokenSize = 500

	// DefaultMaxTokenSize is the hard split threshold.
	DefaultMaxTokenSize = 800
)

// SizeOptions configures chunk sizing for all strategies.
type SizeOptions struct {
	// TargetTokenSize is the fill target; strategies flush a chunk
	// once adding the next entity would exceed it.
	TargetTokenSize int

	// MaxTokenSize is the hard limit; the orchestrator splits any
	// chunk whose estimate exceeds it.
	MaxTokenSize int
}

// DefaultSizeOptions returns the standard sizing configuration.
func DefaultSizeOptions() SizeOptions {
	return SizeOptions{
		TargetTokenSize: DefaultTargetTokenSize,
		MaxTokenSize:    DefaultMaxTokenSize,
	}
}

// Normalize fills zero fields with defaults and repairs an
// inverted target/max pair.
func (o SizeOptions) Normalize() SizeOptions {
	if o.TargetTokenSize <= 0 {
		o.TargetTokenSize = DefaultTargetTokenSize
	}
	if o.MaxTokenSize <= 0 {
		o.MaxTokenSize = DefaultMaxTokenSize
	}
	if o.MaxTokenSize < o.TargetTokenSize {
		o.MaxTokenSize = o.TargetTokenSize
	}
	return o
}

// CacheOptions bounds the persistence-result cache.
type CacheOptions struct {
	// Capacity is the maximum number of cached values.
	Capacity int

	// TTL is how long a cached value stays fresh.
	TTL time.Duration
}

// DefaultCacheOptions returns the standard cache bounds.
func DefaultCacheOptions() CacheOptions {
	return CacheOptions{
		Capacity: 256,
		TTL:      5 * time.Minute,
	}
}
