package server

// clientScript keeps the page in sync with the server. Clicks on elements
// marked data-on-click are sent over the WebSocket, or POSTed when the
// socket is down. New lifecycle lines are echoed to the browser console.
const clientScript = `(function() {
  'use strict';
  var app = document.getElementById('app');
  var ws = null;
  var seq = -1;

  function apply(f) {
    if (!f || typeof f.html !== 'string') return;
    app.innerHTML = f.html;
    if (seq >= 0 && f.log) {
      var fresh = Math.min(f.seq - seq, f.log.length);
      for (var i = f.log.length - fresh; i < f.log.length; i++) {
        console.log(f.log[i]);
      }
    }
    seq = f.seq;
  }

  function post(path) {
    fetch(path, {method: 'POST'})
      .then(function(r) { return r.json(); })
      .then(apply);
  }

  app.addEventListener('click', function(e) {
    var el = e.target.closest('[data-hid]');
    if (!el || !el.hasAttribute('data-on-click')) return;
    e.preventDefault();
    var hid = el.getAttribute('data-hid');
    if (ws && ws.readyState === WebSocket.OPEN) {
      ws.send(JSON.stringify({type: 'event', hid: hid}));
    } else {
      post('/event/' + encodeURIComponent(hid));
    }
  });

  function connect() {
    var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
    ws = new WebSocket(protocol + '//' + location.host + '/ws');
    ws.onmessage = function(e) {
      var msg;
      try { msg = JSON.parse(e.data); } catch (err) { return; }
      if (msg.type === 'frame') apply(msg);
      else if (msg.type === 'error') console.error(msg.error);
    };
    ws.onclose = function() { setTimeout(connect, 1000); };
    ws.onerror = function() { ws.close(); };
  }

  connect();
})();`
