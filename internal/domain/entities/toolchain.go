package entities

// ToolchainRequirement pins the language runtime used for a build.
// One value per build; compile, test and docs steps all use it.
type ToolchainRequirement struct {
	LanguageVersion string
	Vendor          string
}

// Toolchain is a provisioned runtime installation
type Toolchain struct {
	Home    string
	Version string // full version, e.g. 21.0.2
	Major   string // 21
	Vendor  string
}
