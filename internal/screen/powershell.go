package screen

import (
	"fmt"
	"strings"
)

// powerShellTemplate computes the bounding rectangle of all attached screens
// and saves it as a PNG to the quoted path.
const powerShellTemplate = `
Add-Type -AssemblyName System.Windows.Forms,System.Drawing
$screens = [System.Windows.Forms.Screen]::AllScreens
$left = ($screens | ForEach-Object {$_.Bounds.Left} | Measure-Object -Minimum).Minimum
$top = ($screens | ForEach-Object {$_.Bounds.Top} | Measure-Object -Minimum).Minimum
$right = ($screens | ForEach-Object {$_.Bounds.Right} | Measure-Object -Maximum).Maximum
$bottom = ($screens | ForEach-Object {$_.Bounds.Bottom} | Measure-Object -Maximum).Maximum
$bounds = [System.Drawing.Rectangle]::FromLTRB($left, $top, $right, $bottom)
$bmp = New-Object System.Drawing.Bitmap $bounds.Width, $bounds.Height
$graphics = [System.Drawing.Graphics]::FromImage($bmp)
$graphics.CopyFromScreen($bounds.Left, $bounds.Top, 0, 0, $bounds.Size)
$bmp.Save(%s, [System.Drawing.Imaging.ImageFormat]::Png)
$graphics.Dispose()
$bmp.Dispose()
`

// PowerShellScript renders the union-capture script writing to out.
func PowerShellScript(out string) string {
	return fmt.Sprintf(powerShellTemplate, psQuote(out))
}

// psQuote single-quotes s for PowerShell; embedded quotes are doubled.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
