package services

import (
	"os"
	"time"

	"github.com/go-playground/validator"

	"github.com/Helioviewer-Project/go-movies/models"
)

const defaultFrameRate = 15

// ComposerService derives an immutable MovieRequest from either the current
// viewport or an explicit form submission, and enforces every pre-submission
// constraint. It never submits anything itself.
type ComposerService struct {
	validator       *validator.Validate
	logger          models.Logger
	defaultDuration time.Duration
	now             func() time.Time
}

func NewComposerService(logger models.Logger) *ComposerService {
	defaultDuration := models.DefaultMovieDuration
	if configDuration, found := os.LookupEnv(models.Env_MovieDuration); found {
		if parsedDuration, err := time.ParseDuration(configDuration); err == nil && parsedDuration > 0 {
			defaultDuration = parsedDuration
		}
	}
	return &ComposerService{
		validator:       validator.New(),
		logger:          logger,
		defaultDuration: defaultDuration,
		now:             time.Now,
	}
}

// ComposeFromViewport derives a symmetric time window around the viewport's
// observation time. When the window's end would pass the present, the whole
// window is shifted back so no frames are requested from the future.
func (c *ComposerService) ComposeFromViewport(viewport *models.ViewportState) (*models.MovieRequest, error) {
	duration := viewport.Duration
	if duration <= 0 {
		duration = c.defaultDuration
	}
	startTime := viewport.ObservationTime.Add(-duration / 2)
	endTime := viewport.ObservationTime.Add(duration / 2)
	if now := c.now().UTC(); endTime.After(now) {
		skew := endTime.Sub(now)
		startTime = startTime.Add(-skew)
		endTime = now
	}

	frameRate := defaultFrameRate
	request := &models.MovieRequest{
		Region:       viewport.Region.ToArcsec(viewport.ImageScale),
		ImageScale:   viewport.ImageScale,
		Layers:       viewport.Layers,
		Events:       viewport.Events,
		EventsLabels: viewport.EventsLabels,
		Scale:        viewport.Scale,
		ScaleType:    viewport.ScaleType,
		ScaleX:       viewport.ScaleX,
		ScaleY:       viewport.ScaleY,
		StartTime:    startTime,
		EndTime:      endTime,
		FrameRate:    &frameRate,
	}
	return c.finish(request)
}

// ComposeFromForm uses the form's explicit start/end pair and speed setting,
// taking region and layers from the viewport.
func (c *ComposerService) ComposeFromForm(viewport *models.ViewportState, form *models.MovieForm) (*models.MovieRequest, error) {
	startTime, err := models.ParseUTCDate(form.StartTime)
	if err != nil {
		return nil, &models.ValidationError{Reason: err.Error()}
	}
	endTime, err := models.ParseUTCDate(form.EndTime)
	if err != nil {
		return nil, &models.ValidationError{Reason: err.Error()}
	}
	if !endTime.After(startTime) {
		return nil, &models.ValidationError{Reason: "The movie start time must precede the end time. Please try again."}
	}

	request := &models.MovieRequest{
		Region:       viewport.Region.ToArcsec(viewport.ImageScale),
		ImageScale:   viewport.ImageScale,
		Layers:       viewport.Layers,
		Events:       viewport.Events,
		EventsLabels: viewport.EventsLabels,
		Scale:        viewport.Scale,
		ScaleType:    viewport.ScaleType,
		ScaleX:       viewport.ScaleX,
		ScaleY:       viewport.ScaleY,
		StartTime:    startTime,
		EndTime:      endTime,
		FrameRate:    form.FrameRate,
		MovieLength:  form.MovieLength,
	}
	return c.finish(request)
}

func (c *ComposerService) finish(request *models.MovieRequest) (*models.MovieRequest, error) {
	if numShown := request.Layers.NumShown(); numShown < models.MinShownLayers {
		return nil, &models.ValidationError{Reason: models.Msg_NoShownLayers}
	} else if numShown > models.MaxShownLayers {
		return nil, &models.ValidationError{Reason: models.Msg_TooManyLayers}
	}

	minSelection := models.MinSelectionPixels * request.ImageScale
	if request.Region.Width() < minSelection || request.Region.Height() < minSelection {
		return nil, &models.ValidationError{Reason: models.Msg_RegionTooSmall}
	}

	if (request.FrameRate == nil) == (request.MovieLength == nil) {
		return nil, &models.ValidationError{Reason: models.Msg_OneSpeedSetting}
	}
	if request.FrameRate != nil && (*request.FrameRate < models.MinFrameRate || *request.FrameRate > models.MaxFrameRate) {
		return nil, &models.ValidationError{Reason: models.Msg_FrameRateBounds}
	}
	if request.MovieLength != nil && (*request.MovieLength < models.MinMovieLength || *request.MovieLength > models.MaxMovieLength) {
		return nil, &models.ValidationError{Reason: models.Msg_MovieLengthBounds}
	}

	if err := c.validator.Struct(request); err != nil {
		return nil, c.validationReason(err)
	}
	return request, nil
}

func (c *ComposerService) validationReason(err error) error {
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range fieldErrors {
			switch fieldError.Field() {
			case "FrameRate":
				return &models.ValidationError{Reason: models.Msg_FrameRateBounds}
			case "MovieLength":
				return &models.ValidationError{Reason: models.Msg_MovieLengthBounds}
			}
		}
	}
	c.logger.Debugf("composer: rejected request: %v", err)
	return &models.ValidationError{Reason: err.Error()}
}
