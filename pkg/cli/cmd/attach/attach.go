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

package attach

import (
	gocontext "context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/infra"
	"github.com/vicherarr/memora/pkg/cli/log"
	"github.com/vicherarr/memora/pkg/cli/media"
)

var videoFlag bool

var example = `
 * Attach an image to a note
 memora attach 8f3bd424 ./diagram.png

 * Attach a video to a note
 memora attach 8f3bd424 ./demo.mp4 --video`

// NewCmd returns a new attach command
func NewCmd(ctx context.MemoraCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attach <note uuid> <file path>",
		Short:   "Attach a media file to a note",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVar(&videoFlag, "video", false, "attach the file as a video")

	return cmd
}

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

func newRun(ctx context.MemoraCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		noteUUID := args[0]
		fpath := args[1]

		g, err := infra.NewGateway(ctx, nil)
		if err != nil {
			return err
		}

		var acquire func(gocontext.Context) (media.Result, error)
		if videoFlag {
			capability := media.FileCapability{VideoPath: fpath}
			acquire = capability.PickVideo
		} else {
			capability := media.FileCapability{ImagePath: fpath}
			acquire = capability.PickImage
		}

		attachment, err := g.AttachMedia(gocontext.Background(), noteUUID, acquire)
		if err != nil {
			return errors.Wrap(err, "attaching the file")
		}

		log.Successf("attached %s\n", attachment.Filename)

		return nil
	}
}
