/*
Copyright © 2019 the FieldNBalance authors.
This file is part of FieldNBalance.

FieldNBalance is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

FieldNBalance is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with FieldNBalance.  If not, see <http://www.gnu.org/licenses/>.
*/

package nbalanceutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
)

// downloadRetries is the number of times a failed download is retried.
// It must be positive: backoff treats zero as no limit.
var downloadRetries uint64 = 3

var downloadClient = &http.Client{Timeout: 5 * time.Minute}

// maybeDownload checks if the input is an existing file locally.
// If not, it checks if the file is a URL or a blob.
// If it is, it downloads the file and
// returns the path to the downloaded file.
// c, if not nil, is a channel across which error and
// logging messages will be sent.
func maybeDownload(ctx context.Context, path string, c chan string) string {
	if path == "" {
		return path
	}
	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path
	}

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return downloadHTTP(ctx, path, c)
	}

	if IsBlob(path) {
		return downloadBlob(ctx, path, c)
	}

	return path
}

func sendMsg(c chan string, msg string) {
	if c != nil {
		c <- msg
	}
}

// downloadHTTP downloads a file from the specified URL and returns
// the path to the downloaded file. Failed requests are retried with
// an exponential backoff.
func downloadHTTP(ctx context.Context, path string, c chan string) string {
	dir, err := ioutil.TempDir("", "nbalance")
	if err != nil {
		sendMsg(c, fmt.Sprintf("nbalanceutil: failed creating temporary download directory: %v", err))
		return path
	}
	u, err := url.Parse(path)
	if err != nil {
		sendMsg(c, err.Error())
		return path
	}
	outPath := filepath.Join(dir, filepath.Base(u.Path))

	get := func() error {
		req, err := http.NewRequest(http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		resp, err := downloadClient.Do(req.WithContext(ctx))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("nbalanceutil: downloading %s: %s", path, resp.Status)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				// Client errors will not go away on retry.
				return backoff.Permanent(err)
			}
			return err
		}
		w, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if _, err = io.Copy(w, resp.Body); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	}
	err = backoff.RetryNotify(
		get,
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), downloadRetries), ctx),
		func(err error, d time.Duration) {
			sendMsg(c, fmt.Sprintf("%v: retrying in %v", err, d))
		},
	)
	if err != nil {
		sendMsg(c, err.Error())
		return path
	}
	return outPath
}

// IsBlob returns whether the given filename represents a blob
// (i.e., if it starts with 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// The only accepted storage provider is "file", where the bucket name is a
// directory on the local filesystem.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("nbalanceutil.OpenBucket: %v", err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.NewBucket(u.Hostname())
	default:
		return nil, fmt.Errorf("nbalanceutil.OpenBucket: invalid provider %s", u.Scheme)
	}
}

// downloadBlob downloads the specified file from blob storage.
func downloadBlob(ctx context.Context, path string, c chan string) string {
	u, err := url.Parse(path)
	if err != nil {
		sendMsg(c, err.Error())
		return path
	}
	bucket, err := OpenBucket(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		sendMsg(c, err.Error())
		return path
	}
	dir, err := ioutil.TempDir("", "nbalance")
	if err != nil {
		sendMsg(c, fmt.Sprintf("nbalanceutil: failed creating temporary download directory: %v", err))
		return path
	}
	r, err := bucket.NewReader(ctx, strings.TrimPrefix(u.Path, "/"))
	if err != nil {
		sendMsg(c, err.Error())
		return path
	}
	defer r.Close()
	outPath := filepath.Join(dir, filepath.Base(u.Path))
	w, err := os.Create(outPath)
	if err != nil {
		sendMsg(c, err.Error())
		return path
	}
	defer w.Close()
	if _, err = io.Copy(w, r); err != nil {
		sendMsg(c, err.Error())
		return path
	}
	return outPath
}
