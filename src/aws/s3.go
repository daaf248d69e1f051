package aws

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/seventv/FrameProcessor/src/global"
	"github.com/sirupsen/logrus"
)

var (
	AclPublicRead       = aws.String(s3.ObjectCannedACLPublicRead)
	DefaultCacheControl = aws.String("public, max-age=15552000")
)

type S3Instance struct {
	session    *session.Session
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
}

func NewS3(ctx global.Context) global.AwsS3 {
	cfg := ctx.Config().Aws

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessToken, cfg.SecretKey, ""),
	})
	if err != nil {
		logrus.Fatal("failed to create aws session: ", err)
	}

	return &S3Instance{
		session:    sess,
		uploader:   s3manager.NewUploader(sess),
		downloader: s3manager.NewDownloader(sess),
	}
}

func (a *S3Instance) UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType, acl, cacheControl *string) error {
	_, err := a.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:       aws.String(bucket),
		Key:          aws.String(key),
		Body:         data,
		ContentType:  contentType,
		ACL:          acl,
		CacheControl: cacheControl,
	})

	return err
}

func (a *S3Instance) DownloadFile(ctx context.Context, bucket, key string, file io.WriterAt) error {
	_, err := a.downloader.DownloadWithContext(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})

	return err
}
