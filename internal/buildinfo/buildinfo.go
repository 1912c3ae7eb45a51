// Package buildinfo exposes the values stamped in with -ldflags -X.
package buildinfo

const Graffiti = "     _     _      \n ___(_) __| |_  __\n/ __| |/ _` \\ \\/ /\n\\__ \\ | (_| |>  < \n|___/_|\\__,_/_/\\_\\\n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "SIDX"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

// String is the banner line printed by the binaries.
func (b buildinfo) String() string {
	if b.Time() == "" {
		return b.Name() + " " + b.Tag()
	}
	return b.Name() + " " + b.Tag() + ", built " + b.Time()
}

var Info buildinfo
