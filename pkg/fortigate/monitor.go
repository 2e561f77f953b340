// Copyright Contributors to the Open Cluster Management project

package fortigate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"k8s.io/klog/v2"
)

// SystemStatus describes the device answering to the client.
type SystemStatus struct {
	Version  string `json:"version"`
	Build    int64  `json:"build"`
	Serial   string `json:"serial"`
	Hostname string `json:"hostname"`
	LogDisk  string `json:"logDisk"`
	Model    string `json:"model"`
	Major    int    `json:"major"`
	Minor    int    `json:"minor"`
	Patch    int    `json:"patch"`
}

// Models by serial number prefix, used when the device does not report its model.
var modelsBySerial = map[string]string{
	"FGT60E": "60E", "FGT60F": "60F", "FGT61E": "61E", "FGT61F": "61F",
	"FG200E": "200E", "FG201E": "201E", "FG5H0E": "500E", "FG5H1E": "501E",
	"FG6H0E": "600E", "FG6H1E": "601E", "FGT2KE": "2000E", "FG200D": "200D",
	"FG100D": "100D", "FGT80C": "80C", "FGT90D": "90D", "FGT1KD": "1000D",
	"FGT3HD": "300D", "FGT5HD": "500D", "FG600C": "600C", "FG100F": "100F",
	"FG1K5D": "1500D", "FGT1KC": "1000C", "FG3K4E": "3400E", "FG39E6": "3960E",
	"FGT40F": "40F", "FGVM02": "VM02", "FG300C": "300C", "FG3K6E": "3600E",
}

// ModelFromSerial returns the model of a device from its serial number.
func ModelFromSerial(serial string) (string, bool) {
	serial = strings.TrimSpace(serial)
	if len(serial) < 6 {
		return "", false
	}
	model, ok := modelsBySerial[serial[:6]]
	return model, ok
}

func parseStatus(resp interface{}) (*SystemStatus, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	r := gjson.ParseBytes(data)
	if !r.Get("version").Exists() {
		return nil, fmt.Errorf("unexpected system status response: %s", string(data))
	}
	s := &SystemStatus{
		Version: r.Get("version").String(),
		Build:   r.Get("build").Int(),
		Serial:  r.Get("serial").String(),
	}
	if results := r.Get("results"); results.Exists() {
		s.Hostname = results.Get("hostname").String()
		s.LogDisk = results.Get("log_disk_status").String()
		s.Model = results.Get("model_number").String()
	} else {
		s.Model, _ = ModelFromSerial(s.Serial)
	}
	levels := strings.Split(strings.TrimPrefix(s.Version, "v"), ".")
	if len(levels) != 3 {
		return nil, fmt.Errorf("unexpected firmware version: %s", s.Version)
	}
	for i, dst := range []*int{&s.Major, &s.Minor, &s.Patch} {
		if *dst, err = strconv.Atoi(levels[i]); err != nil {
			return nil, fmt.Errorf("unexpected firmware version: %s", s.Version)
		}
	}
	return s, nil
}

// SystemStatus reads the firmware, serial and model of the device.
func (c *Client) SystemStatus(ctx context.Context) (*SystemStatus, error) {
	resp, err := c.send(ctx, http.MethodGet, c.url(APIMonitor, "system/status"), Params{}, nil)
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(resp)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
	return status, nil
}

// SetFortiCloudProxy sends the following requests through FortiCloud for the device with the
// serial number. An empty serial uses the serial of the last status read.
func (c *Client) SetFortiCloudProxy(serial string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if serial == "" && c.status != nil {
		serial = c.status.Serial
	}
	if serial == "" {
		return fmt.Errorf("a serial number is required to reach %s through FortiCloud", c.host)
	}
	c.setBase(forticloudURL + serial + "/api/v2/")
	c.forticloud = true
	c.fortiCloudErrors = 0
	return nil
}

// SetDirect sends the following requests to the device itself.
func (c *Client) SetDirect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setBase(fmt.Sprintf("https://%s:%d/api/v2/", c.host, c.port))
	c.forticloud = false
	c.fortiCloudErrors = 0
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (interface{}, error) {
	return c.send(ctx, http.MethodPost, c.url(APIMonitor, path), Params{}, body)
}

// Reboot restarts the device, logging msg in its event log.
func (c *Client) Reboot(ctx context.Context, msg string) (interface{}, error) {
	klog.Infof("Rebooting FortiGate %s", c.host)
	return c.post(ctx, "system/os/reboot", map[string]string{"event_log_message": msg})
}

// RestoreConfig restores the global configuration from a saved revision.
func (c *Client) RestoreConfig(ctx context.Context, configID int) (interface{}, error) {
	return c.post(ctx, "system/config/restore", map[string]interface{}{
		"config_id": configID,
		"scope":     "global",
		"source":    "revision",
	})
}

// SaveConfigRevision saves the running configuration as a revision.
func (c *Client) SaveConfigRevision(ctx context.Context, comments string) (interface{}, error) {
	resp, err := c.post(ctx, "system/config-revision/save", map[string]string{"comments": comments})
	if err != nil {
		return nil, err
	}
	c.refresh(ctx, "system_config_revisions", "")
	return resp, nil
}

// Firmware sources.
const (
	FirmwareFortiGuard = "fortiguard"
	FirmwareUpload     = "upload"
)

// UpdateFirmware upgrades the device. The image is fetched from FortiGuard, or content is sent
// when source is FirmwareUpload.
func (c *Client) UpdateFirmware(ctx context.Context, filename, source string, content []byte) (interface{}, error) {
	if source == "" {
		source = FirmwareFortiGuard
	}
	body := map[string]interface{}{
		"source":           source,
		"filename":         filename,
		"format_partition": true,
	}
	if source == FirmwareUpload {
		if len(content) == 0 {
			return nil, fmt.Errorf("no firmware content to upload for %s", filename)
		}
		body["file_content"] = base64.StdEncoding.EncodeToString(content)
	}
	return c.post(ctx, "system/firmware/upgrade", body)
}

// DownloadSwitchFirmware makes the device download a FortiSwitch image.
func (c *Client) DownloadSwitchFirmware(ctx context.Context, imageID string) (interface{}, error) {
	return c.post(ctx, "switch-controller/fsw-firmware/download", map[string]string{"image_id": imageID})
}

// PushSwitchFirmware installs a downloaded image on the managed switch with the serial number.
func (c *Client) PushSwitchFirmware(ctx context.Context, serial, imageID string) (interface{}, error) {
	return c.post(ctx, "switch-controller/fsw-firmware/push", map[string]string{
		"serial":   serial,
		"image_id": imageID,
	})
}

// ConfigScripts lists the configuration scripts stored on the device.
func (c *Client) ConfigScripts(ctx context.Context) ([]Entry, error) {
	return c.Get(ctx, "system_config_scripts", Params{})
}

// UploadConfigScript stores and runs a configuration script.
func (c *Client) UploadConfigScript(ctx context.Context, name, content string) (interface{}, error) {
	return c.post(ctx, "system/config-script/upload", map[string]string{
		"filename":     name,
		"file_content": base64.StdEncoding.EncodeToString([]byte(content)),
	})
}

// DeleteConfigScripts removes the configuration scripts with the given ids.
func (c *Client) DeleteConfigScripts(ctx context.Context, ids []int) (interface{}, error) {
	return c.post(ctx, "system/config-script/delete", map[string]interface{}{"id_list": ids})
}
