// Package exiftool wraps the external tag tool behind a batch read/write
// client. All invocations are serialized through a single mutex so tag I/O
// from concurrent workers reaches the tool one batch at a time.
package exiftool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"takeout/internal/services"
)

// WriteOp is one pending tag write: the target file and the tags to set.
type WriteOp struct {
	Path string
	Tags map[string]any
}

// WriteResult reports the outcome of a single WriteOp.
type WriteResult struct {
	Path string
	Err  error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps exiftool CLI interactions. Safe for concurrent use; calls are
// serialized internally.
type Client struct {
	binary  string
	timeout time.Duration
	mu      sync.Mutex
	exec    Executor
}

// New constructs an exiftool client.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrValidation, "exiftool", "new", "binary required", nil)
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ReadBatch reads the requested tags from every path in one invocation and
// returns per-path tag maps keyed exactly as the tool reports them
// (group-qualified). Paths the tool returned nothing for are absent from the
// result. The whole batch fails together: a tool-level error reports no
// per-path results.
func (c *Client) ReadBatch(ctx context.Context, paths []string, tags []string) (map[string]map[string]any, error) {
	if len(paths) == 0 {
		return map[string]map[string]any{}, nil
	}

	args := make([]string, 0, len(tags)+len(paths)+4)
	args = append(args, "-json", "-G", "-n", "-q")
	for _, tag := range tags {
		args = append(args, "-"+tag)
	}
	args = append(args, paths...)

	out, err := c.run(ctx, args)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "exiftool", "read-batch",
			fmt.Sprintf("batch of %d", len(paths)), err)
	}

	var records []map[string]any
	if len(out) > 0 {
		if err := json.Unmarshal(out, &records); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "exiftool", "read-batch", "parse output", err)
		}
	}

	result := make(map[string]map[string]any, len(records))
	for _, record := range records {
		source, _ := record["SourceFile"].(string)
		if source == "" {
			continue
		}
		delete(record, "SourceFile")
		result[source] = record
	}
	return result, nil
}

// WriteBatch applies each op in order, one invocation per file, and returns
// per-op results. A failed write never aborts the rest of the batch.
func (c *Client) WriteBatch(ctx context.Context, ops []WriteOp) []WriteResult {
	results := make([]WriteResult, 0, len(ops))
	for _, op := range ops {
		results = append(results, WriteResult{Path: op.Path, Err: c.write(ctx, op)})
	}
	return results
}

func (c *Client) write(ctx context.Context, op WriteOp) error {
	if len(op.Tags) == 0 {
		return nil
	}

	args := make([]string, 0, len(op.Tags)+3)
	args = append(args, "-overwrite_original", "-q")
	for _, assignment := range tagAssignments(op.Tags) {
		args = append(args, assignment)
	}
	args = append(args, op.Path)

	if _, err := c.run(ctx, args); err != nil {
		return services.Wrap(services.ErrExternalTool, "exiftool", "write", op.Path, err)
	}
	return nil
}

// tagAssignments renders tag values as -TAG=VALUE arguments in deterministic
// order. List values repeat the assignment per entry; an empty list emits a
// single bare assignment, which clears the tag.
func tagAssignments(tags map[string]any) []string {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys))
	for _, key := range keys {
		switch value := tags[key].(type) {
		case []string:
			if len(value) == 0 {
				args = append(args, "-"+key+"=")
				continue
			}
			for _, entry := range value {
				args = append(args, "-"+key+"="+entry)
			}
		case float64:
			args = append(args, "-"+key+"="+strconv.FormatFloat(value, 'f', -1, 64))
		case string:
			args = append(args, "-"+key+"="+value)
		default:
			args = append(args, "-"+key+"="+fmt.Sprint(value))
		}
	}
	return args
}

func (c *Client) run(ctx context.Context, args []string) ([]byte, error) {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exec.Run(runCtx, c.binary, args)
}
