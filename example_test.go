package uploadkit_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/textproto"

	"github.com/gobeaver/uploadkit"
	"github.com/gobeaver/uploadkit/filevalidator"
)

func ExampleIngestReader() {
	var img bytes.Buffer
	_ = png.Encode(&img, image.NewGray(image.Rect(0, 0, 64, 48)))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("title", "Sunny flat")
	_ = mw.WriteField("tags", "balcony, garden")
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="photo"; filename="living room.png"`)
	h.Set("Content-Type", "image/png")
	w, _ := mw.CreatePart(h)
	_, _ = w.Write(img.Bytes())
	_ = mw.Close()

	res, err := uploadkit.IngestReader(context.Background(), &body, mw.FormDataContentType(), uploadkit.IngestOptions{
		GlobalFileSizeLimit: 1 * filevalidator.MB,
		ArrayKeys:           []string{"tags"},
		Validators:          []filevalidator.Validator{filevalidator.ForImages().MustBuild()},
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	photo := res.File("photo")
	fmt.Println(res.Body.Get("title"))
	fmt.Println(res.Body.Array("tags"))
	fmt.Println(photo.Filename, photo.MimeType, photo.Width, photo.Height)
	// Output:
	// Sunny flat
	// [balcony garden]
	// living_room.png image/png 64 48
}

func ExampleFileRecord_Validate() {
	rec := uploadkit.NewFileRecord([]byte("just some text"), "photo.png", "image/png", "photo")

	err := rec.Validate(filevalidator.ForImages().MustBuild())
	fmt.Println(errors.Is(err, uploadkit.ErrValidation))
	fmt.Println(filevalidator.GetErrorType(err))
	// Output:
	// true
	// signature
}

func ExampleFetchAsFile_forbiddenHost() {
	_, err := uploadkit.FetchAsFile(context.Background(), "http://127.0.0.1/admin.png", 1*filevalidator.MB)
	fmt.Println(errors.Is(err, uploadkit.ErrForbiddenHost))
	fmt.Println(uploadkit.PublicMessage(err))
	// Output:
	// true
	// image URL points to a forbidden host
}

func ExampleToStringArray() {
	fmt.Println(uploadkit.ToStringArray(`["a", 1, true]`))
	fmt.Println(uploadkit.ToStringArray("a, b,,c"))
	fmt.Println(len(uploadkit.ToStringArray("   ")))
	// Output:
	// [a 1 true]
	// [a b c]
	// 0
}
