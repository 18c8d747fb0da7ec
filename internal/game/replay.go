package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/holoocg/holo-server-go/internal/game/rules"
	"go.uber.org/zap"
)

const replayFormatVersion = 1

// ReplayFrame is one committed state of a match together with its checksum.
type ReplayFrame struct {
	Snapshot rules.Snapshot
	Checksum SnapshotChecksum
}

// Replay is the sequence of committed states of one match, with a cursor for
// stepping through them.
type Replay struct {
	MatchID      string
	Frames       []ReplayFrame
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay
func NewReplay(matchID string) *Replay {
	return &Replay{
		MatchID: matchID,
		Frames:  make([]ReplayFrame, 0),
	}
}

// RecordState appends snapshot as the next frame.
func (r *Replay) RecordState(snapshot *rules.Snapshot) {
	frame := ReplayFrame{
		Snapshot: *snapshot,
		Checksum: ComputeChecksum(*snapshot),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.Frames = append(r.Frames, frame)
}

// Start rewinds the cursor
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CurrentIndex = 0
}

// Next returns the frame under the cursor and moves forward.
func (r *Replay) Next() (ReplayFrame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.Frames) {
		frame := r.Frames[r.CurrentIndex]
		r.CurrentIndex++
		return frame, true
	}
	return ReplayFrame{}, false
}

// Previous moves back one frame and returns it.
func (r *Replay) Previous() (ReplayFrame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.Frames[r.CurrentIndex], true
	}
	return ReplayFrame{}, false
}

// Skip moves the cursor by count frames, clamped to the recorded range.
func (r *Replay) Skip(count int) (ReplayFrame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Frames) == 0 {
		return ReplayFrame{}, false
	}
	r.CurrentIndex = max(0, min(r.CurrentIndex+count, len(r.Frames)-1))
	return r.Frames[r.CurrentIndex], true
}

// Size returns the number of recorded frames
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Frames)
}

// FrameAt returns the frame at index.
func (r *Replay) FrameAt(index int) (ReplayFrame, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.Frames) {
		return r.Frames[index], true
	}
	return ReplayFrame{}, false
}

// Verify recomputes every frame checksum and reports the first mismatch.
func (r *Replay) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, frame := range r.Frames {
		ok, err := VerifyChecksum(frame.Snapshot, frame.Checksum)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if !ok {
			return fmt.Errorf("frame %d: checksum mismatch", i)
		}
	}
	return nil
}

// SaveToFile writes the replay as gzip-compressed gob to <directory>/<match>.replay.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(replayPath(directory, r.MatchID))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		MatchID:    r.MatchID,
		Timestamp:  time.Now().UTC(),
		Version:    replayFormatVersion,
		FrameCount: len(r.Frames),
	}
	if err := encoder.Encode(&metadata); err != nil {
		gzipWriter.Close()
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i := range r.Frames {
		if err := encoder.Encode(&r.Frames[i]); err != nil {
			gzipWriter.Close()
			return fmt.Errorf("failed to encode frame %d: %w", i, err)
		}
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, matchID string) (*Replay, error) {
	file, err := os.Open(replayPath(directory, matchID))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != replayFormatVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.MatchID)
	for i := 0; i < metadata.FrameCount; i++ {
		var frame ReplayFrame
		if err := decoder.Decode(&frame); err != nil {
			return nil, fmt.Errorf("failed to decode frame %d: %w", i, err)
		}
		replay.Frames = append(replay.Frames, frame)
	}
	return replay, nil
}

func replayPath(directory, matchID string) string {
	return filepath.Join(directory, fmt.Sprintf("%s.replay", matchID))
}

type replayMetadata struct {
	MatchID    string
	Timestamp  time.Time
	Version    int
	FrameCount int
}

// ReplayRecorder keeps in-memory replays of running matches.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay
	enabled map[string]bool
	saveDir string
}

// NewReplayRecorder creates a recorder that saves into saveDir
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		enabled: make(map[string]bool),
		saveDir: saveDir,
	}
}

// StartRecording begins recording a match
func (rr *ReplayRecorder) StartRecording(matchID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.replays[matchID] = NewReplay(matchID)
	rr.enabled[matchID] = true
	rr.logger.Info("started replay recording", zap.String("match_id", matchID))
}

// StopRecording keeps the replay but ignores further states
func (rr *ReplayRecorder) StopRecording(matchID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled[matchID] = false
	rr.logger.Info("stopped replay recording", zap.String("match_id", matchID))
}

// RecordState appends snapshot when recording is enabled for matchID.
func (rr *ReplayRecorder) RecordState(matchID string, snapshot *rules.Snapshot) {
	rr.mu.RLock()
	enabled := rr.enabled[matchID]
	replay := rr.replays[matchID]
	rr.mu.RUnlock()

	if !enabled || replay == nil {
		return
	}
	replay.RecordState(snapshot)
	rr.logger.Debug("recorded replay state",
		zap.String("match_id", matchID),
		zap.Int("frame_count", replay.Size()))
}

// GetReplay returns the in-memory replay of a match
func (rr *ReplayRecorder) GetReplay(matchID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	replay, exists := rr.replays[matchID]
	return replay, exists
}

// SaveReplay writes a replay to disk and drops it from memory.
func (rr *ReplayRecorder) SaveReplay(matchID string) error {
	rr.mu.Lock()
	replay, exists := rr.replays[matchID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for match %s", matchID)
	}
	delete(rr.replays, matchID)
	delete(rr.enabled, matchID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}
	rr.logger.Info("saved replay to disk",
		zap.String("match_id", matchID),
		zap.Int("frame_count", replay.Size()),
		zap.String("directory", rr.saveDir))
	return nil
}

// LoadReplay reads a saved replay from disk
func (rr *ReplayRecorder) LoadReplay(matchID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, matchID)
	if err != nil {
		return nil, err
	}
	rr.logger.Info("loaded replay from disk",
		zap.String("match_id", matchID),
		zap.Int("frame_count", replay.Size()))
	return replay, nil
}

// ClearReplay drops a replay without saving it
func (rr *ReplayRecorder) ClearReplay(matchID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.replays, matchID)
	delete(rr.enabled, matchID)
}

// IsRecording reports whether states of matchID are being recorded
func (rr *ReplayRecorder) IsRecording(matchID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return rr.enabled[matchID]
}

// MatchIDs returns the matches that have a replay in memory, sorted.
func (rr *ReplayRecorder) MatchIDs() []string {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	ids := make([]string, 0, len(rr.replays))
	for id := range rr.replays {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
