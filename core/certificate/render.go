package certificate

import (
	"bytes"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	renderWidth  = 1200
	renderHeight = 850
)

// Render draws a certificate as a PNG using the given template's colors.
func Render(cert Certificate, tpl Template) ([]byte, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "parsing regular font")
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "parsing bold font")
	}

	dc := gg.NewContext(renderWidth, renderHeight)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	// double border
	dc.SetHexColor(tpl.PrimaryColor)
	dc.SetLineWidth(8)
	dc.DrawRectangle(30, 30, renderWidth-60, renderHeight-60)
	dc.Stroke()
	dc.SetHexColor(tpl.SecondaryColor)
	dc.SetLineWidth(2)
	dc.DrawRectangle(48, 48, renderWidth-96, renderHeight-96)
	dc.Stroke()

	cx := float64(renderWidth) / 2

	dc.SetFontFace(face(bold, 52))
	dc.SetHexColor(tpl.PrimaryColor)
	dc.DrawStringAnchored("Certificate of Completion", cx, 150, 0.5, 0.5)

	dc.SetFontFace(face(regular, 24))
	dc.SetHexColor("#374151")
	dc.DrawStringAnchored("This certifies that", cx, 250, 0.5, 0.5)

	dc.SetFontFace(face(bold, 44))
	dc.SetHexColor("#111827")
	dc.DrawStringAnchored(cert.StudentName, cx, 330, 0.5, 0.5)

	dc.SetFontFace(face(regular, 24))
	dc.SetHexColor("#374151")
	dc.DrawStringAnchored("has successfully completed the course", cx, 410, 0.5, 0.5)

	dc.SetFontFace(face(bold, 36))
	dc.SetHexColor(tpl.SecondaryColor)
	dc.DrawStringAnchored(cert.CourseName, cx, 480, 0.5, 0.5)

	if len(cert.Skills) > 0 {
		dc.SetFontFace(face(regular, 18))
		dc.SetHexColor("#6b7280")
		dc.DrawStringAnchored("Skills: "+strings.Join(cert.Skills, ", "), cx, 550, 0.5, 0.5)
	}

	dc.SetFontFace(face(regular, 20))
	dc.SetHexColor("#374151")
	dc.DrawStringAnchored("Instructor: "+cert.InstructorName, cx/2+100, 680, 0.5, 0.5)
	dc.DrawStringAnchored(cert.CompletionDate.Format("January 2, 2006"), cx*1.5-100, 680, 0.5, 0.5)

	dc.SetFontFace(face(regular, 16))
	dc.SetHexColor("#9ca3af")
	dc.DrawStringAnchored("Certificate No. "+cert.Number, cx, 760, 0.5, 0.5)

	var buff bytes.Buffer
	if err := dc.EncodePNG(&buff); err != nil {
		return nil, errors.Wrap(err, "encoding PNG")
	}
	return buff.Bytes(), nil
}

func face(fnt *truetype.Font, size float64) font.Face {
	return truetype.NewFace(fnt, &truetype.Options{Size: size})
}
