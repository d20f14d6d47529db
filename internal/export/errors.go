package export

import "errors"

// NoticeNoData is shown when an export is requested over no entries.
const NoticeNoData = "No data to download."

// Sentinel errors for export rendering.
var (
	ErrNoData      = errors.New("no data to download")
	ErrRenderChart = errors.New("render chart")
	ErrBuildXLSX   = errors.New("build xlsx")
)
