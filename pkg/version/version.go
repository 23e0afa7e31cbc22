package version

import (
	"runtime"
	"strconv"
	"time"

	"github.com/Masterminds/semver"
	"github.com/rs/zerolog/log"

	"github.com/bacalhau-project/cryri/pkg/models"
)

const DevelopmentGitVersion = "v0.0.0-xxxxxxx"

// Set with -ldflags "-X github.com/bacalhau-project/cryri/pkg/version.GITVERSION=..."
var (
	GITVERSION = DevelopmentGitVersion
	GITCOMMIT  = ""
	BUILDDATE  = ""
)

// Get returns the version the binary was built from. Values that do not parse
// are reported as they are rather than failing the command.
func Get() *models.BuildVersionInfo {
	info := &models.BuildVersionInfo{
		GitVersion: GITVERSION,
		GitCommit:  GITCOMMIT,
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
	}

	if s, err := semver.NewVersion(GITVERSION); err == nil {
		info.Major = strconv.FormatInt(s.Major(), 10) //nolint:gomnd // base10
		info.Minor = strconv.FormatInt(s.Minor(), 10) //nolint:gomnd // base10
	} else {
		log.Debug().Err(err).Str("version", GITVERSION).Msg("could not parse build version")
	}

	if BUILDDATE != "" {
		if buildDate, err := time.Parse(time.RFC3339, BUILDDATE); err == nil {
			info.BuildDate = buildDate
		} else {
			log.Debug().Err(err).Str("date", BUILDDATE).Msg("could not parse build date")
		}
	}
	return info
}
