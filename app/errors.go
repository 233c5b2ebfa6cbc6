package app

import "errors"

// ErrInvalidID is returned for an identifier that is not in a non-empty
// record store.
var ErrInvalidID = errors.New("hgnc_id requested is invalid")

// ErrNoPlot is returned when no plot has been rendered.
var ErrNoPlot = errors.New("plot not in db")

// Response bodies for the plain-text outcomes.
const (
	msgNoData        = "No data in db.\n"
	msgInvalidID     = "hgnc_id requested is invalid.\n"
	msgNoPlot        = "Plot not in db, pls execute \"POST\" method to create plot.\n"
	msgPlotSaved     = "Plot saved to db.\n"
	msgPlotDeleted   = "Plot deleted from db.\n"
	msgNoMethod      = "The method you tried does not exist.\n"
	msgInternalError = "Internal server error.\n"
)
