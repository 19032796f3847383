/* Copyright 2026 Memora Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package upgrade provides a facility for checking for updates
package upgrade

import (
	gocontext "context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/github"
	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/cli/consts"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/database"
	"github.com/vicherarr/memora/pkg/cli/log"
)

// upgradeInterval is 3 weeks
var upgradeInterval int64 = 86400 * 7 * 3

const (
	repoOwner = "memora"
	repoName  = "memora"
	tagPrefix = "cli-v"
)

type version struct {
	major int
	minor int
	patch int
}

func parseVersion(s string) (version, error) {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 {
		return version{}, errors.Errorf("invalid version %s", s)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return version{}, errors.Wrap(err, "parsing major version")
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return version{}, errors.Wrap(err, "parsing minor version")
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return version{}, errors.Wrap(err, "parsing patch version")
	}

	return version{major: major, minor: minor, patch: patch}, nil
}

func (v version) newerThan(other version) bool {
	if v.major != other.major {
		return v.major > other.major
	}
	if v.minor != other.minor {
		return v.minor > other.minor
	}

	return v.patch > other.patch
}

// fetchLatestTag fetches the tag name of the latest release from the repository
func fetchLatestTag() (string, error) {
	gh := github.NewClient(nil)

	release, _, err := gh.Repositories.GetLatestRelease(gocontext.Background(), repoOwner, repoName)
	if err != nil {
		return "", errors.Wrap(err, "fetching the latest release")
	}

	return release.GetTagName(), nil
}

func checkVersion(ctx context.MemoraCtx) error {
	log.Infof("current version is %s\n", ctx.Version)

	tag, err := fetchLatestTag()
	if err != nil {
		return errors.Wrap(err, "fetching the latest version")
	}

	latestVersion, err := parseVersion(strings.TrimPrefix(tag, tagPrefix))
	if err != nil {
		return errors.Wrap(err, "parsing the latest version")
	}

	currentVersion, err := parseVersion(ctx.Version)
	if err != nil {
		// Non-release builds carry a non-semver version tag. Nothing to compare.
		log.Infof("latest version is %d.%d.%d\n", latestVersion.major, latestVersion.minor, latestVersion.patch)
		return nil
	}

	if !latestVersion.newerThan(currentVersion) {
		log.Success("you are up-to-date\n")
		return nil
	}

	log.Infof("latest version is %d.%d.%d\n", latestVersion.major, latestVersion.minor, latestVersion.patch)
	fmt.Println("You can update by downloading from https://github.com/memora/memora/releases")

	return nil
}

func shouldCheckUpdate(ctx context.MemoraCtx) (bool, error) {
	db := ctx.DB

	var lastUpgrade int64
	if err := database.GetSystem(db, consts.SystemLastUpgrade, &lastUpgrade); err != nil {
		return false, errors.Wrap(err, "getting last_upgrade")
	}

	now := time.Now().Unix()

	return now-lastUpgrade > upgradeInterval, nil
}

func touchLastUpgrade(ctx context.MemoraCtx) error {
	db := ctx.DB

	now := time.Now().Unix()
	if err := database.UpdateSystem(db, consts.SystemLastUpgrade, strconv.FormatInt(now, 10)); err != nil {
		return errors.Wrap(err, "updating last_upgrade")
	}

	return nil
}

// Check checks if a new update is available and prints a message if so.
// The check is throttled so that it runs at most once per upgradeInterval.
func Check(ctx context.MemoraCtx) error {
	if !ctx.EnableUpgradeCheck {
		return nil
	}

	ok, err := shouldCheckUpdate(ctx)
	if err != nil {
		return errors.Wrap(err, "checking if upgrade check is needed")
	}
	if !ok {
		return nil
	}

	if err := touchLastUpgrade(ctx); err != nil {
		return errors.Wrap(err, "updating the last upgrade timestamp")
	}

	if err := checkVersion(ctx); err != nil {
		return errors.Wrap(err, "checking version")
	}

	return nil
}
