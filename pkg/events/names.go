package events

import "strings"

// Name identifies an event published on a Bus.
type Name string

// Lifecycle events, in the order the application publishes them.
const (
	CheckLibrariesInitialized Name = "checkLibrariesInitialized"
	LibrariesInitialized      Name = "librariesInitialized"

	InitPageClasses          Name = "initPageClasses"
	InitPageClassesComplete  Name = "initPageClassesComplete"
	RegisterServices         Name = "registerServices"
	RegisterServicesComplete Name = "registerServicesComplete"
	InitServices             Name = "initServices"
	InitServicesComplete     Name = "initServicesComplete"
	InitViewClasses          Name = "initViewClasses"
	InitViewClassesComplete  Name = "initViewClassesComplete"

	LoadData         Name = "loadData"
	LoadDataStart    Name = "loadDataStart"
	LoadDataComplete Name = "loadDataComplete"

	SetFormModel               Name = "setFormModel"
	SetFormModelComplete       Name = "setFormModelComplete"
	SetPageModels              Name = "setPageModels"
	SetPageModelsComplete      Name = "setPageModelsComplete"
	RenderPages                Name = "renderPages"
	RenderPagesComplete        Name = "renderPagesComplete"
	DecoratePages              Name = "decoratePages"
	DecoratePagesComplete      Name = "decoratePagesComplete"
	RegisterViews              Name = "registerViews"
	RegisterViewsComplete      Name = "registerViewsComplete"
	InitializeObs              Name = "initializeObs"
	InitializeObsComplete      Name = "initializeObsComplete"
	AfterDecoratePages         Name = "afterDecoratePages"
	AfterDecoratePagesComplete Name = "afterDecoratePagesComplete"
	EnterForm                  Name = "enterForm"
	EnterFormComplete          Name = "enterFormComplete"

	BackButton Name = "backbutton"

	// Registered is emitted on a service's own bus once the application has
	// taken ownership of it.
	Registered Name = "registered"
)

// completeSuffix marks the event closing a phase.
const completeSuffix = "Complete"

// Complete returns the name of the event closing the phase n opens.
func (n Name) Complete() Name {
	return n + completeSuffix
}

// IsComplete reports whether n closes a phase.
func (n Name) IsComplete() bool {
	return strings.HasSuffix(string(n), completeSuffix) && len(n) > len(completeSuffix)
}

// Prefixed scopes n under prefix, e.g. "PageService:registered".
func (n Name) Prefixed(prefix string) Name {
	if prefix == "" {
		return n
	}
	return Name(prefix + ":" + string(n))
}

func (n Name) String() string {
	return string(n)
}
