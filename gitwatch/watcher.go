// Copyright 2025-2026
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gitwatch

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/wrap-vault/wrapnav/common"
)

// Watcher monitors the workbook for edits and commits each settled change
// to the surrounding git repository. Editors save through temp files and
// renames, so the directory is watched rather than the file itself and
// events are debounced until the file has been quiet for the settle period.
type Watcher struct {
	path   string
	repo   string
	settle time.Duration
}

func New(path string) *Watcher {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Watcher{
		path:   abs,
		repo:   filepath.Dir(abs),
		settle: 5 * time.Second,
	}
}

// Watch blocks until ctx is cancelled, syncing the repository whenever the
// workbook changes
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.repo); err != nil {
		return err
	}

	log.Info().Str("File", w.path).Msg("watching workbook for changes")

	var settle *time.Timer
	var settleC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			log.Debug().Str("Op", event.Op.String()).Str("Name", event.Name).Msg("workbook event")
			if settle == nil {
				settle = time.NewTimer(w.settle)
				settleC = settle.C
			} else {
				if !settle.Stop() {
					<-settleC
				}
				settle.Reset(w.settle)
			}

		case <-settleC:
			settle = nil
			settleC = nil
			if err := w.Sync(ctx); err != nil {
				log.Error().Err(err).Msg("could not sync workbook to git")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	// editors write through .~lock and temp siblings
	return name == filepath.Base(w.path)
}

// Sync stages the workbook and, when it actually changed, commits and pushes
func (w *Watcher) Sync(ctx context.Context) error {
	if _, err := w.git(ctx, "add", w.path); err != nil {
		return err
	}

	status, err := w.git(ctx, "status", "--porcelain", w.path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(status) == "" {
		log.Debug().Msg("workbook unchanged; nothing to commit")
		return nil
	}

	msg := fmt.Sprintf("Update NAV workbook %s", time.Now().In(common.GetTimezone()).Format("2006-01-02 15:04"))
	if _, err := w.git(ctx, "commit", "-m", msg); err != nil {
		return err
	}
	if _, err := w.git(ctx, "pull", "--rebase"); err != nil {
		return err
	}
	if _, err := w.git(ctx, "push"); err != nil {
		return err
	}

	log.Info().Str("Commit", msg).Msg("workbook synced to git")
	return nil
}

func (w *Watcher) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = w.repo
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
