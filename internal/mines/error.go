package mines

import "errors"

var ErrEmptyLayout = errors.New("layout has no valid cells")
