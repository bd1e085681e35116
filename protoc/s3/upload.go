package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	// defaultPartSize must stay above the 5 MiB minimum of S3
	defaultPartSize    = 8 << 20
	maxParts           = 10000
	maxBufferedParts   = 4
	maxConcurrentParts = 4
)

// upload streams r to the object key: sources smaller than one part are
// sent with a single PutObject, larger ones with a multipart upload that is
// aborted on failure.
func (s *Session) upload(ctx context.Context, api API, key string, r io.Reader) (err error) {
	producer, parts := newPartProducer(r, maxBufferedParts)
	producerCtx, cancelProducer := context.WithCancel(ctx)
	defer func() {
		cancelProducer()
		producer.drain()
	}()
	go producer.produce(producerCtx, s.partSize)

	first, more := <-parts
	if !more {
		if producer.err != nil {
			return producer.err
		}
		first = part{reader: strings.NewReader(""), size: 0}
	}
	if first.size < s.partSize {
		_, err = api.PutObject(ctx, &awss3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          first.reader,
			ContentLength: aws.Int64(first.size),
		})
		return mapError(err)
	}

	var created *awss3.CreateMultipartUploadOutput
	if created, err = api.CreateMultipartUpload(ctx, &awss3.CreateMultipartUploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return mapError(err)
	}
	uploadID := created.UploadId
	defer func() {
		if err == nil {
			return
		}
		if _, abortErr := api.AbortMultipartUpload(context.WithoutCancel(ctx), &awss3.AbortMultipartUploadInput{
			Bucket:   aws.String(s.bucket),
			Key:      aws.String(key),
			UploadId: uploadID,
		}); abortErr != nil {
			s.logger.Info("failed to abort multipart upload",
				"key", key, "errorMessage", abortErr.Error())
		}
	}()

	var (
		mu        sync.Mutex
		completed []types.CompletedPart
	)
	sem := semaphore.NewWeighted(maxConcurrentParts)
	eg, egCtx := errgroup.WithContext(ctx)
	next, number := first, int32(0)
	for more {
		number++
		if number > maxParts {
			err = fmt.Errorf("object %q exceeds %d parts of %d bytes", key, maxParts, s.partSize)
			break
		}
		// acquire before reading the next part to bound the buffered parts
		if err = sem.Acquire(egCtx, 1); err != nil {
			break
		}
		current, partNumber := next, number
		eg.Go(func() error {
			defer sem.Release(1)
			res, err := api.UploadPart(egCtx, &awss3.UploadPartInput{
				Bucket:        aws.String(s.bucket),
				Key:           aws.String(key),
				UploadId:      uploadID,
				PartNumber:    aws.Int32(partNumber),
				Body:          current.reader,
				ContentLength: aws.Int64(current.size),
			})
			if err != nil {
				return err
			}
			mu.Lock()
			completed = append(completed, types.CompletedPart{ETag: res.ETag, PartNumber: aws.Int32(partNumber)})
			mu.Unlock()
			return nil
		})
		next, more = <-parts
	}
	waitErr := eg.Wait()
	if err = errors.Join(err, waitErr); err == nil && !more {
		err = producer.err
	}
	if err != nil {
		return mapError(err)
	}

	slices.SortFunc(completed, func(a, b types.CompletedPart) int {
		return int(aws.ToInt32(a.PartNumber) - aws.ToInt32(b.PartNumber))
	})
	if _, err = api.CompleteMultipartUpload(ctx, &awss3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(key),
		UploadId:        uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	}); err != nil {
		return mapError(err)
	}
	s.logger.V(1).Info("uploaded multipart object", "key", key, "parts", len(completed))
	return
}
