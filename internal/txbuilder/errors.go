package txbuilder

import "errors"

var ErrFeeEstimationFailed = errors.New("fee estimation failed")
