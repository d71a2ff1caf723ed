package banner

import (
	"github.com/a-h/templ"

	"github.com/helixlab/helixdash/app/lib/utils"
)

type BannerType string

const (
	BannerSuccess BannerType = "success"
	BannerError   BannerType = "error"
	BannerWarning BannerType = "warning"
	BannerInfo    BannerType = "info"
)

type BannerProps struct {
	ID          string
	Type        BannerType
	Message     string
	Description string
	Dismissable bool
	// AutoDismiss removes the banner after this many seconds when positive.
	AutoDismiss int
	Class       string
}

func (p BannerProps) tone() string {
	switch p.kind() {
	case BannerSuccess:
		return "border-emerald-200 bg-emerald-50 text-emerald-900"
	case BannerWarning:
		return "border-amber-200 bg-amber-50 text-amber-900"
	case BannerError:
		return "border-red-200 bg-red-50 text-red-900"
	default:
		return "border-sky-200 bg-sky-50 text-sky-900"
	}
}

func (p BannerProps) kind() BannerType {
	if p.Type == "" {
		return BannerInfo
	}
	return p.Type
}

func (p BannerProps) role() string {
	if p.kind() == BannerError {
		return "alert"
	}
	return "status"
}

func (p BannerProps) classes() string {
	return utils.TwMerge("banner flex items-start gap-3 rounded-md border p-3 text-sm", p.tone(), p.Class)
}

// Error is the common form-error banner.
func Error(id, message, description string) templ.Component {
	return Banner(BannerProps{
		ID:          id,
		Type:        BannerError,
		Message:     message,
		Description: description,
		Dismissable: true,
		AutoDismiss: 8,
	})
}
