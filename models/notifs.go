package models

const NotifTitle = "Helioviewer Movies"

const (
	MsgFmt_BuildFailure = "We are unable to create a movie for the time you requested. " +
		"Please select a different time range and try again. (%s)"
	MsgFmt_Processing = "Your video is processing and will be available in approximately %s. " +
		"You may view it at any time after it is ready by clicking the 'Movie' button."
	MsgFmt_Ready = "Your movie \"%s\" is ready! Click here to watch or download it."
)

const (
	Msg_TooManyLayers = "Movies cannot have more than three layers. Please hide/remove " +
		"layers until there are no more than three layers visible."
	Msg_NoShownLayers = "You must have at least one layer in your movie. Please try again."
	Msg_RegionTooSmall = "The area you have selected is too small to create a movie. " +
		"Please try again."
	Msg_FrameRateBounds   = "Frame-rate must be between 1 and 30."
	Msg_MovieLengthBounds = "Movie length must be between 5 and 100 seconds."
	Msg_OneSpeedSetting   = "Choose either a frame-rate or a movie length, not both."
)
