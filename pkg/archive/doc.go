// Package archive builds zip archives of a blog's photos.
//
// Pipeline.SavePhotos queries the blog's photo posts in a date range, picks
// the best size of each photo, downloads them through a bounded worker pool
// and writes one stored zip member per photo, named
// {prefix}/{post_id}_{basename} and dated from the post's timestamp in UTC.
//
// Basic usage:
//
//	pipeline := archive.NewPipeline(client, downloader.NewFetcher(nil, cfg, log), cfg, log)
//	result, err := pipeline.SavePhotos(ctx, "staff", dateRange)
//	if err != nil {
//		return err
//	}
//	fmt.Println(result.Path)
package archive
