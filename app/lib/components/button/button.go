package button

import (
	"github.com/a-h/templ"

	"github.com/helixlab/helixdash/app/lib/utils"
)

type Variant string
type Size string
type Type string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
	VariantOutline     Variant = "outline"
	VariantSecondary   Variant = "secondary"
	VariantGhost       Variant = "ghost"
	VariantLink        Variant = "link"
)

const (
	TypeButton Type = "button"
	TypeReset  Type = "reset"
	TypeSubmit Type = "submit"
)

const (
	SizeDefault Size = "default"
	SizeSm      Size = "sm"
	SizeLg      Size = "lg"
	SizeIcon    Size = "icon"
)

type Props struct {
	ID         string
	Class      string
	Attributes templ.Attributes
	Variant    Variant
	Size       Size
	FullWidth  bool
	Href       string
	Target     string
	Disabled   bool
	Type       Type
	Label      string
	Children   templ.Component
}

func (b Props) variantClasses() string {
	switch b.Variant {
	case VariantDestructive:
		return "bg-destructive text-white hover:bg-destructive/90"
	case VariantOutline:
		return "border border-slate-300 bg-white hover:bg-slate-100"
	case VariantSecondary:
		return "bg-slate-100 text-slate-900 hover:bg-slate-200"
	case VariantGhost:
		return "hover:bg-slate-100"
	case VariantLink:
		return "text-emerald-700 underline-offset-4 hover:underline"
	default:
		return "bg-emerald-600 text-white hover:bg-emerald-700"
	}
}

func (b Props) sizeClasses() string {
	switch b.Size {
	case SizeSm:
		return "h-9 px-3 rounded-md"
	case SizeLg:
		return "h-10 px-8 rounded-md"
	case SizeIcon:
		return "h-10 w-10"
	default:
		return "h-10 px-4 py-2"
	}
}

func first(props []Props) Props {
	if len(props) > 0 {
		return props[0]
	}
	return Props{}
}

func (b Props) classes() string {
	return utils.TwMerge(
		"inline-flex items-center justify-center gap-2 rounded-md text-sm font-medium transition-colors",
		"focus-visible:outline-none disabled:pointer-events-none disabled:opacity-50",
		b.variantClasses(),
		b.sizeClasses(),
		utils.If(b.FullWidth, "w-full"),
		b.Class,
	)
}

func (b Props) buttonType() Type {
	if b.Type == "" {
		return TypeButton
	}
	return b.Type
}
