// Package orchestrator holds the per-interaction state: the selected audio,
// the last result or error, and whether a summarization is in flight.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/logging"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/picker"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/summarizer"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/utils"
	"github.com/google/uuid"
)

const (
	msgReadFailed     = "Could not read the selected file."
	msgNotAudio       = "Please choose an audio file."
	msgTooLarge       = "The selected file is too large."
	msgNoAudio        = "Please select an audio file first."
	msgNoCredential   = "Please provide an API key first."
	msgInFlight       = "A summary is already being generated."
	msgAnalyzeFailed  = "Failed to analyze the audio. Please try another file."
	msgRemoteDisabled = "Google Drive is not available."
)

// Summarizer is the single outbound call made per submission.
type Summarizer interface {
	Summarize(ctx context.Context, req summarizer.Request) (model.SummaryResult, model.GenerationMetadata, error)
}

// CredentialSession supplies the current credential and clears it on reset.
type CredentialSession interface {
	Credential() (model.Credential, bool)
	Reset(ctx context.Context) error
}

type RemoteSource interface {
	Open(ctx context.Context) (model.SelectedAudio, error)
}

type Orchestrator struct {
	session    CredentialSession
	summarizer Summarizer
	remote     RemoteSource

	mu         sync.Mutex
	generation uint64
	audio      model.SelectedAudio
	result     *model.SummaryResult
	meta       model.GenerationMetadata
	err        error
	inFlight   bool
}

// New wires the orchestrator. remote may be nil when Drive selection is not offered.
func New(session CredentialSession, summarizer Summarizer, remote RemoteSource) *Orchestrator {
	return &Orchestrator{session: session, summarizer: summarizer, remote: remote}
}

// SelectLocal reads path and makes it the current audio, replacing any previous
// selection together with its result and error. A failed read still drops the
// previous selection.
func (o *Orchestrator) SelectLocal(ctx context.Context, path string) (model.SelectedAudio, error) {
	log := logging.NewLogger(ctx)

	mimeType, err := summarizer.ResolveAudioMIMEType(path)
	if err != nil {
		log.Warnf("rejected selection %q: %v", path, err)
		return model.SelectedAudio{}, o.failSelection(model.NewError(model.KindValidation, msgNotAudio, err))
	}

	info, err := os.Stat(path)
	if err != nil {
		return model.SelectedAudio{}, o.failSelection(model.NewError(model.KindRead, msgReadFailed, utils.WrapIfNotNil(err)))
	}
	if info.Size() > picker.MaxAudioBytes {
		return model.SelectedAudio{}, o.failSelection(model.NewError(model.KindRead, msgTooLarge, fmt.Errorf("file is %d bytes", info.Size())))
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return model.SelectedAudio{}, o.failSelection(model.NewError(model.KindRead, msgReadFailed, utils.WrapIfNotNil(err)))
	}
	if len(payload) == 0 {
		return model.SelectedAudio{}, o.failSelection(model.NewError(model.KindRead, msgReadFailed, errors.New("file is empty")))
	}

	audio := model.NewSelectedAudio(filepath.Base(path), mimeType, payload)
	o.replaceAudio(audio)
	log.Infof("selected local file name=%q mime=%s bytes=%d", audio.Name, mimeType, len(payload))
	return audio, nil
}

// SelectRemote opens the Drive picker. A cancelled pick leaves the state
// untouched; any other failure drops the previous selection.
func (o *Orchestrator) SelectRemote(ctx context.Context) (model.SelectedAudio, error) {
	if o.remote == nil {
		return model.SelectedAudio{}, o.failSelection(model.NewError(model.KindNotReady, msgRemoteDisabled, nil))
	}

	audio, err := o.remote.Open(ctx)
	if err != nil {
		if errors.Is(err, picker.ErrCancelled) {
			return model.SelectedAudio{}, err
		}
		return model.SelectedAudio{}, o.failSelection(err)
	}

	o.replaceAudio(audio)
	return audio, nil
}

// CanSubmit is true when audio and a credential are present and nothing is in flight.
func (o *Orchestrator) CanSubmit() bool {
	_, hasCredential := o.session.Credential()

	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.audio.IsZero() && hasCredential && !o.inFlight
}

// Submit sends the current audio for summarization exactly once. Failures are
// stored and returned as *model.Error with a user-facing message; the original
// cause stays reachable through errors.Unwrap.
func (o *Orchestrator) Submit(ctx context.Context, language string) (result model.SummaryResult, err error) {
	credential, hasCredential := o.session.Credential()

	o.mu.Lock()
	switch {
	case o.inFlight:
		o.mu.Unlock()
		return model.SummaryResult{}, model.NewError(model.KindPrecondition, msgInFlight, nil)
	case o.audio.IsZero():
		o.err = model.NewError(model.KindPrecondition, msgNoAudio, nil)
		o.mu.Unlock()
		return model.SummaryResult{}, o.err
	case !hasCredential:
		o.err = model.NewError(model.KindPrecondition, msgNoCredential, nil)
		o.mu.Unlock()
		return model.SummaryResult{}, o.err
	}
	o.result = nil
	o.meta = nil
	o.err = nil
	o.inFlight = true
	generation := o.generation
	audio := o.audio
	o.mu.Unlock()

	ctx = logging.WithRequestID(ctx, uuid.NewString())
	log := logging.NewLogger(ctx)
	language = ResolveLanguage(language)
	log.Infof("submitting name=%q mime=%s language=%q", audio.Name, audio.MIMEType, language)

	var meta model.GenerationMetadata
	defer func() {
		if r := recover(); r != nil {
			utils.PrintStack("summarizer panicked", log)
			result = model.SummaryResult{}
			err = model.NewError(model.KindNetwork, msgAnalyzeFailed, fmt.Errorf("summarizer panic: %v", r))
		}
		o.finish(generation, result, meta, err)
	}()

	result, meta, err = o.summarizer.Summarize(ctx, summarizer.Request{
		Audio:      audio,
		Language:   language,
		Credential: credential,
	})
	if err != nil {
		log.Errorf("summarization failed kind=%s: %v", model.KindOf(err), err)
		return model.SummaryResult{}, normalize(err)
	}

	log.Infof("summarization finished replies=%d latency_ms=%s", len(result.Replies), meta[model.MetadataKeyLatencyMs])
	return result, nil
}

func (o *Orchestrator) finish(generation uint64, result model.SummaryResult, meta model.GenerationMetadata, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.inFlight = false
	if generation != o.generation {
		// The selection changed or the session was reset while the call was out.
		return
	}
	if err != nil {
		o.err = err
		return
	}
	o.result = &result
	o.meta = meta
}

func normalize(err error) error {
	switch model.KindOf(err) {
	case model.KindPrecondition, model.KindRead, model.KindValidation:
		return err
	case model.KindSchema:
		return model.NewError(model.KindSchema, msgAnalyzeFailed, err)
	default:
		return model.NewError(model.KindNetwork, msgAnalyzeFailed, err)
	}
}

// Result returns the last successful summary, if any.
func (o *Orchestrator) Result() (model.SummaryResult, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.result == nil {
		return model.SummaryResult{}, false
	}
	return *o.result, true
}

func (o *Orchestrator) Metadata() model.GenerationMetadata {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.meta
}

func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

func (o *Orchestrator) Audio() (model.SelectedAudio, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.audio, !o.audio.IsZero()
}

func (o *Orchestrator) InFlight() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight
}

// Reset drops audio, result and error and resets the session.
func (o *Orchestrator) Reset(ctx context.Context) error {
	o.mu.Lock()
	o.generation++
	o.audio = model.SelectedAudio{}
	o.result = nil
	o.meta = nil
	o.err = nil
	o.mu.Unlock()

	if err := o.session.Reset(ctx); err != nil {
		logging.NewLogger(ctx).Warnf("session reset incomplete: %v", err)
		return model.NewError(model.KindRead, "Could not clear the saved API key.", err)
	}
	return nil
}

func (o *Orchestrator) replaceAudio(audio model.SelectedAudio) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.generation++
	o.audio = audio
	o.result = nil
	o.meta = nil
	o.err = nil
}

func (o *Orchestrator) failSelection(err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.generation++
	o.audio = model.SelectedAudio{}
	o.result = nil
	o.meta = nil
	o.err = err
	return err
}
